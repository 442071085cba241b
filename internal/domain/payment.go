package domain

import "time"

// Payment outcome states as this flow understands them. RequiresAction
// (a pending redirect/3-D Secure step) is treated as a failure: there is no
// asynchronous confirmation loop, the user retries instead.
const (
	PaymentSucceeded      = "succeeded"
	PaymentFailed         = "failed"
	PaymentRequiresAction = "requires_action"
)

// PaymentIntent mirrors the processor's intent object, reduced to the fields
// this flow reads. Amount is in minor units (cents) as the processor reports it.
type PaymentIntent struct {
	ID            string    `json:"id"`
	ClientSecret  string    `json:"client_secret,omitempty"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CustomerID    string    `json:"customer_id,omitempty"`
	ReceiptEmail  string    `json:"receipt_email,omitempty"`
	CatalogID     string    `json:"catalog_id,omitempty"` // from intent metadata
	CreatedAt     time.Time `json:"created_at"`
}

// Outcome maps the processor's status to this flow's three outcomes.
func (pi *PaymentIntent) Outcome() string {
	switch pi.Status {
	case "succeeded":
		return PaymentSucceeded
	case "requires_action", "processing", "requires_confirmation":
		return PaymentRequiresAction
	default:
		return PaymentFailed
	}
}

// ReconciliationReport lists succeeded charges at the processor that have no
// matching ClientRecord — the accepted inconsistency window made visible.
type ReconciliationReport struct {
	CheckedIntents int             `json:"checked_intents"`
	Orphaned       []PaymentIntent `json:"orphaned"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
