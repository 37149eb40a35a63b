package quote

import (
	"github.com/quotedesk/backend/internal/domain/shared"
)

// Event types for the quote aggregate
const (
	EventTypeCreated       = "quote.created"
	EventTypeRevised       = "quote.revised"
	EventTypeStatusChanged = "quote.status_changed"
)

// CreatedEvent is emitted when the first revision of a lineage is created
type CreatedEvent struct {
	shared.BaseDomainEvent
	Folio      string `json:"folio"`
	ClientName string `json:"client_name"`
}

// NewCreatedEvent creates a new CreatedEvent
func NewCreatedEvent(q *Quote) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, "Quote", q.ID),
		Folio:           q.Folio,
		ClientName:      q.ClientName,
	}
}

// RevisedEvent is emitted when a new revision joins an existing lineage
type RevisedEvent struct {
	shared.BaseDomainEvent
	Folio         string `json:"folio"`
	Version       int    `json:"version"`
	ParentVersion int    `json:"parent_version"`
}

// NewRevisedEvent creates a new RevisedEvent
func NewRevisedEvent(q *Quote, parentVersion int) *RevisedEvent {
	return &RevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRevised, "Quote", q.ID),
		Folio:           q.Folio,
		Version:         q.Version,
		ParentVersion:   parentVersion,
	}
}

// StatusChangedEvent is emitted on every successful status transition
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	Folio      string `json:"folio"`
	Version    int    `json:"version"`
	FromStatus Status `json:"from_status"`
	ToStatus   Status `json:"to_status"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(q *Quote, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatusChanged, "Quote", q.ID),
		Folio:           q.Folio,
		Version:         q.Version,
		FromStatus:      from,
		ToStatus:        q.Status,
	}
}
