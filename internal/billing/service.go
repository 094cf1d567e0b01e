package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
)

type orgLoader interface {
	GetModel(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
}

// Service exposes the billing read-through and portal operations.
type Service interface {
	Overview(ctx context.Context, orgID uuid.UUID, role enums.MemberRole) (*Overview, error)
	CreatePortal(ctx context.Context, orgID uuid.UUID, role enums.MemberRole) (*PortalSession, error)
}

type service struct {
	orgs      orgLoader
	stripeAPI StripeBillingClient
	cfg       config.StripeConfig
	logg      *logger.Logger
}

// NewService builds a billing service over the Stripe client.
func NewService(orgs orgLoader, stripeAPI StripeBillingClient, cfg config.StripeConfig, logg *logger.Logger) (Service, error) {
	if orgs == nil {
		return nil, fmt.Errorf("organization loader required")
	}
	if stripeAPI == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &service{
		orgs:      orgs,
		stripeAPI: stripeAPI,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

// Overview reads subscription and invoices through from Stripe. Either leg
// failing degrades that leg to null/empty instead of failing the response.
func (s *service) Overview(ctx context.Context, orgID uuid.UUID, role enums.MemberRole) (*Overview, error) {
	if err := requireBillingRole(role); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetModel(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := &Overview{Invoices: []InvoiceDTO{}}

	if org.StripeSubscriptionID != nil && *org.StripeSubscriptionID != "" {
		sub, subErr := s.stripeAPI.GetSubscription(ctx, *org.StripeSubscriptionID)
		if subErr != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "stripe subscription fetch failed, degrading to null", subErr)
			}
		} else {
			out.Subscription = subscriptionFromStripe(sub)
		}
	}

	if org.StripeCustomerID != nil && *org.StripeCustomerID != "" {
		limit := int64(s.cfg.InvoicePageSize)
		if limit <= 0 {
			limit = 10
		}
		invoices, invErr := s.stripeAPI.ListInvoices(ctx, *org.StripeCustomerID, limit)
		if invErr != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "stripe invoice fetch failed, degrading to empty", invErr)
			}
		} else {
			for _, inv := range invoices {
				out.Invoices = append(out.Invoices, invoiceFromStripe(inv))
			}
		}
	}

	return out, nil
}

// CreatePortal opens a provider-hosted billing portal session.
func (s *service) CreatePortal(ctx context.Context, orgID uuid.UUID, role enums.MemberRole) (*PortalSession, error) {
	if err := requireBillingRole(role); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetModel(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.StripeCustomerID == nil || *org.StripeCustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no billing account found for this organization")
	}

	session, err := s.stripeAPI.CreatePortalSession(ctx, *org.StripeCustomerID, s.cfg.PortalReturnURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create billing portal session")
	}
	return &PortalSession{URL: session.URL}, nil
}

func requireBillingRole(role enums.MemberRole) error {
	if !role.CanManageBilling() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "billing requires the admin or owner role")
	}
	return nil
}
