package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

// PlanDTO describes the priced line of a subscription.
type PlanDTO struct {
	PriceID  string `json:"price_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval,omitempty"`
	Quantity int64  `json:"quantity"`
}

// SubscriptionDTO is the wire representation of the org's subscription.
type SubscriptionDTO struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	Plan               *PlanDTO   `json:"plan,omitempty"`
}

// InvoiceDTO is the wire representation of one invoice.
type InvoiceDTO struct {
	ID               string    `json:"id"`
	Number           string    `json:"number,omitempty"`
	Status           string    `json:"status"`
	Total            int64     `json:"total"`
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	Created          time.Time `json:"created"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	InvoicePDF       string    `json:"invoice_pdf,omitempty"`
	HostedInvoiceURL string    `json:"hosted_invoice_url,omitempty"`
}

// Overview is the billing page payload. Subscription is null and Invoices
// empty when the provider has nothing for the org or a leg failed.
type Overview struct {
	Subscription *SubscriptionDTO `json:"subscription"`
	Invoices     []InvoiceDTO     `json:"invoices"`
}

// PortalSession carries the provider-hosted portal URL.
type PortalSession struct {
	URL string `json:"url"`
}

func subscriptionFromStripe(sub *stripe.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	dto := &SubscriptionDTO{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CanceledAt:        unixToTime(sub.CanceledAt),
		TrialEnd:          unixToTime(sub.TrialEnd),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		dto.CurrentPeriodStart = unixToTime(item.CurrentPeriodStart)
		dto.CurrentPeriodEnd = unixToTime(item.CurrentPeriodEnd)
		if item.Price != nil {
			plan := &PlanDTO{
				PriceID:  item.Price.ID,
				Amount:   centsToAmount(item.Price.UnitAmount),
				Currency: string(item.Price.Currency),
				Quantity: item.Quantity,
			}
			if item.Price.Recurring != nil {
				plan.Interval = string(item.Price.Recurring.Interval)
			}
			dto.Plan = plan
		}
	}
	return dto
}

func invoiceFromStripe(inv *stripe.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:               inv.ID,
		Number:           inv.Number,
		Status:           string(inv.Status),
		Total:            inv.Total,
		Amount:           centsToAmount(inv.Total),
		Currency:         string(inv.Currency),
		InvoicePDF:       inv.InvoicePDF,
		HostedInvoiceURL: inv.HostedInvoiceURL,
	}
	if t := unixToTime(inv.Created); t != nil {
		dto.Created = *t
	}
	if t := unixToTime(inv.PeriodStart); t != nil {
		dto.PeriodStart = *t
	}
	if t := unixToTime(inv.PeriodEnd); t != nil {
		dto.PeriodEnd = *t
	}
	return dto
}

// centsToAmount renders provider cent totals as a fixed two-decimal amount.
func centsToAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func unixToTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
