package quote

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/quotedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TaxRate is the IVA rate applied to every quote subtotal
var TaxRate = decimal.NewFromFloat(0.19)

// DefaultValidityDays is used when a draft does not specify a validity window
const DefaultValidityDays = 30

// Status represents the commercial status of a quote
type Status string

const (
	StatusDraft        Status = "draft"
	StatusOpen         Status = "open"
	StatusAccepted     Status = "accepted"
	StatusRejected     Status = "rejected"
	StatusInvoiced     Status = "invoiced"
	StatusInProduction Status = "in_production"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusAccepted, StatusRejected, StatusInvoiced, StatusInProduction:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusOpen
	case StatusOpen:
		return target == StatusAccepted || target == StatusRejected || target == StatusInProduction
	case StatusAccepted:
		return target == StatusInvoiced || target == StatusInProduction
	case StatusRejected, StatusInvoiced, StatusInProduction:
		return false // no outgoing transitions
	}
	return false
}

// IsTerminal returns true if no outgoing transition exists for the status
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusInvoiced
}

// Item represents a line item in a quote
type Item struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuoteID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"quote_id"`
	PartNumber string          `gorm:"type:varchar(50);not null" json:"part_number"`
	Name       string          `gorm:"type:varchar(200);not null" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
	SpecURL    string          `gorm:"type:varchar(500)" json:"spec_url,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "quote_items"
}

// NewItem creates a new quote line item
// LineTotal is always derived from quantity and unit price, never taken from input
func NewItem(quoteID uuid.UUID, partNumber, name string, quantity int, unitPrice valueobject.Money, specURL string) (*Item, error) {
	if partNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Part number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Item name cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit price cannot be negative")
	}

	now := time.Now()
	return &Item{
		ID:         uuid.New(),
		QuoteID:    quoteID,
		PartNumber: partNumber,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice.Amount(),
		LineTotal:  unitPrice.Amount().Mul(decimal.NewFromInt(int64(quantity))),
		SpecURL:    specURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// GetLineTotalMoney returns the line total as Money value object
func (i *Item) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyCLP(i.LineTotal)
}

// Quote represents one immutable revision within a quote lineage.
// All revisions of a lineage share a folio; each carries its own version
// number starting at 1. A revision is never mutated after persistence,
// only superseded by a newer version or advanced through status.
type Quote struct {
	shared.BaseAggregateRoot
	Folio        string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_quotes_folio_version,priority:1" json:"folio"`
	Version      int             `gorm:"not null;uniqueIndex:idx_quotes_folio_version,priority:2" json:"version"`
	ParentFolio  *string         `gorm:"type:varchar(20)" json:"parent_folio,omitempty"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	ClientName   string          `gorm:"type:varchar(200);not null" json:"client_name"`
	Items        []Item          `gorm:"foreignKey:QuoteID" json:"items"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"tax"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	Status       Status          `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Terms        string          `gorm:"type:text" json:"terms"`
	ValidityDays int             `gorm:"not null" json:"validity_days"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
	AcceptedAt   *time.Time      `json:"accepted_at,omitempty"`
	RejectedAt   *time.Time      `json:"rejected_at,omitempty"`
	InvoicedAt   *time.Time      `json:"invoiced_at,omitempty"`
	ProductionAt *time.Time      `json:"production_at,omitempty"`
}

// TableName returns the table name for GORM
func (Quote) TableName() string {
	return "quotes"
}

// New creates the first revision of a new quote lineage.
// The folio must come from the sequencer; it is never fabricated here.
func New(folio string, clientID uuid.UUID, clientName string) (*Quote, error) {
	if folio == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Folio cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Client ID cannot be empty")
	}
	if clientName == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Client name cannot be empty")
	}

	q := &Quote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Folio:             folio,
		Version:           1,
		ClientID:          clientID,
		ClientName:        clientName,
		Items:             make([]Item, 0),
		Subtotal:          decimal.Zero,
		Tax:               decimal.Zero,
		Total:             decimal.Zero,
		Status:            StatusDraft,
		ValidityDays:      DefaultValidityDays,
	}

	q.AddDomainEvent(NewCreatedEvent(q))

	return q, nil
}

// NewRevision derives the next revision from an existing quote.
// Mutable fields are copied, the client is carried over unchanged, and the
// new revision always enters the lineage in the open state. The parent is
// left untouched. Terminal parents cannot be revised.
func NewRevision(parent *Quote) (*Quote, error) {
	if parent == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Parent quote is required")
	}
	if parent.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot revise a quote in %s status", parent.Status))
	}

	parentFolio := parent.Folio
	now := time.Now()
	rev := &Quote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Folio:             parent.Folio,
		Version:           parent.Version + 1,
		ParentFolio:       &parentFolio,
		ClientID:          parent.ClientID,
		ClientName:        parent.ClientName,
		Items:             make([]Item, 0, len(parent.Items)),
		Status:            StatusOpen,
		Notes:             parent.Notes,
		Terms:             parent.Terms,
		ValidityDays:      parent.ValidityDays,
		SubmittedAt:       &now,
	}

	for _, item := range parent.Items {
		copied, err := NewItem(rev.ID, item.PartNumber, item.Name, item.Quantity,
			valueobject.NewMoneyCLP(item.UnitPrice), item.SpecURL)
		if err != nil {
			return nil, err
		}
		rev.Items = append(rev.Items, *copied)
	}
	rev.recalculateTotals()

	rev.AddDomainEvent(NewRevisedEvent(rev, parent.Version))

	return rev, nil
}

// AddItem adds a new line item to the quote
// Only allowed before the quote reaches a terminal state and before persistence freezes it
func (q *Quote) AddItem(partNumber, name string, quantity int, unitPrice valueobject.Money, specURL string) (*Item, error) {
	item, err := NewItem(q.ID, partNumber, name, quantity, unitPrice, specURL)
	if err != nil {
		return nil, err
	}

	q.Items = append(q.Items, *item)
	q.recalculateTotals()
	q.UpdatedAt = time.Now()

	return item, nil
}

// SetNotes sets the free-form notes on the quote
func (q *Quote) SetNotes(notes string) {
	q.Notes = notes
	q.UpdatedAt = time.Now()
}

// SetTerms sets the commercial terms text
func (q *Quote) SetTerms(terms string) {
	q.Terms = terms
	q.UpdatedAt = time.Now()
}

// SetValidityDays sets the validity window of the quote
func (q *Quote) SetValidityDays(days int) error {
	if days < 1 {
		return shared.NewDomainError("VALIDATION_ERROR", "Validity days must be at least 1")
	}
	q.ValidityDays = days
	q.UpdatedAt = time.Now()
	return nil
}

// Validate checks the invariants required before first persistence
func (q *Quote) Validate() error {
	if len(q.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Quote must contain at least one item")
	}
	return nil
}

// Submit transitions the quote from draft to open
func (q *Quote) Submit() error {
	if err := q.transition(StatusOpen); err != nil {
		return err
	}
	now := time.Now()
	q.SubmittedAt = &now
	return nil
}

// Accept marks an open quote as accepted by the client
func (q *Quote) Accept() error {
	if err := q.transition(StatusAccepted); err != nil {
		return err
	}
	now := time.Now()
	q.AcceptedAt = &now
	return nil
}

// Reject marks an open quote as rejected; rejected is terminal
func (q *Quote) Reject() error {
	if err := q.transition(StatusRejected); err != nil {
		return err
	}
	now := time.Now()
	q.RejectedAt = &now
	return nil
}

// MarkInvoiced marks an accepted quote as invoiced; invoiced is terminal
func (q *Quote) MarkInvoiced() error {
	if err := q.transition(StatusInvoiced); err != nil {
		return err
	}
	now := time.Now()
	q.InvoicedAt = &now
	return nil
}

// StartProduction moves an open or accepted quote into production
func (q *Quote) StartProduction() error {
	if err := q.transition(StatusInProduction); err != nil {
		return err
	}
	now := time.Now()
	q.ProductionAt = &now
	return nil
}

// transition applies a status change after checking the state machine.
// The change is all-or-nothing: on error the quote is left untouched.
func (q *Quote) transition(target Status) error {
	if !q.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot move quote from %s to %s", q.Status, target))
	}
	previous := q.Status
	q.Status = target
	q.UpdatedAt = time.Now()

	q.AddDomainEvent(NewStatusChangedEvent(q, previous))

	return nil
}

// recalculateTotals recomputes subtotal, tax and total from the items.
// Client-submitted totals are never trusted; this is the record of truth.
func (q *Quote) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range q.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	q.Subtotal = subtotal
	q.Tax = subtotal.Mul(TaxRate).Round(2)
	q.Total = q.Subtotal.Add(q.Tax)
}

// GetSubtotalMoney returns the subtotal as Money
func (q *Quote) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyCLP(q.Subtotal)
}

// GetTaxMoney returns the tax as Money
func (q *Quote) GetTaxMoney() valueobject.Money {
	return valueobject.NewMoneyCLP(q.Tax)
}

// GetTotalMoney returns the total as Money
func (q *Quote) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyCLP(q.Total)
}

// ItemCount returns the number of line items
func (q *Quote) ItemCount() int {
	return len(q.Items)
}

// IsDraft returns true if the quote has not been submitted yet
func (q *Quote) IsDraft() bool {
	return q.Status == StatusDraft
}

// IsOpen returns true if the quote awaits a client decision
func (q *Quote) IsOpen() bool {
	return q.Status == StatusOpen
}

// IsTerminal returns true if the quote is in a terminal state
func (q *Quote) IsTerminal() bool {
	return q.Status.IsTerminal()
}

// ExpiresAt returns the end of the validity window
func (q *Quote) ExpiresAt() time.Time {
	return q.CreatedAt.AddDate(0, 0, q.ValidityDays)
}
