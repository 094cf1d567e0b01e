package billing

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	portalsession "github.com/stripe/stripe-go/v84/billingportal/session"
	"github.com/stripe/stripe-go/v84/invoice"
	"github.com/stripe/stripe-go/v84/subscription"

	pkgstripe "github.com/rinksidehq/rinkside-backend/pkg/stripe"
)

// StripeBillingClient exposes the subset of Stripe operations required by the billing service.
type StripeBillingClient interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	ListInvoices(ctx context.Context, customerID string, limit int64) ([]*stripe.Invoice, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the billing service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeBillingClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price")
	return subscription.Get(id, params)
}

func (w *stripeClientWrapper) ListInvoices(ctx context.Context, customerID string, limit int64) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)

	var out []*stripe.Invoice
	iter := invoice.List(params)
	for iter.Next() {
		out = append(out, iter.Invoice())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *stripeClientWrapper) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	return portalsession.New(params)
}
