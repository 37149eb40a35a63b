package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// CreateQuoteRequest represents a request to create a quote
type CreateQuoteRequest struct {
	ClientID     uuid.UUID              `json:"client_id" binding:"required"`
	Items        []CreateQuoteItemInput `json:"items" binding:"required,min=1,dive"`
	Notes        string                 `json:"notes"`
	Terms        string                 `json:"terms"`
	ValidityDays int                    `json:"validity_days"`
	// Submit opens the quote immediately instead of leaving it in draft
	Submit bool `json:"submit"`
}

// CreateQuoteItemInput represents a line item in the create request.
// The line total is always recomputed server-side.
type CreateQuoteItemInput struct {
	PartNumber string          `json:"part_number" binding:"required,min=1,max=50"`
	Name       string          `json:"name" binding:"required,min=1,max=200"`
	Quantity   int             `json:"quantity" binding:"required,min=1"`
	UnitPrice  decimal.Decimal `json:"unit_price" binding:"required"`
	SpecURL    string          `json:"spec_url" binding:"omitempty,url,max=500"`
}

// ReviseQuoteRequest represents a request to derive a new revision.
// Nil fields are carried over from the parent revision unchanged.
type ReviseQuoteRequest struct {
	Items        []CreateQuoteItemInput `json:"items" binding:"omitempty,min=1,dive"`
	Notes        *string                `json:"notes"`
	Terms        *string                `json:"terms"`
	ValidityDays *int                   `json:"validity_days"`
}

// QuoteListFilter represents list filtering options
type QuoteListFilter struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	Status     string `form:"status"`
	ClientID   string `form:"client_id"`
	Search     string `form:"search"`
	LatestOnly bool   `form:"latest_only"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir"`
}

// QuoteItemResponse represents a line item in responses
type QuoteItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	PartNumber string          `json:"part_number"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	SpecURL    string          `json:"spec_url,omitempty"`
}

// QuoteResponse represents a quote revision in responses
type QuoteResponse struct {
	ID           uuid.UUID           `json:"id"`
	Folio        string              `json:"folio"`
	Version      int                 `json:"version"`
	ParentFolio  *string             `json:"parent_folio,omitempty"`
	ClientID     uuid.UUID           `json:"client_id"`
	ClientName   string              `json:"client_name"`
	Items        []QuoteItemResponse `json:"items"`
	ItemCount    int                 `json:"item_count"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Tax          decimal.Decimal     `json:"tax"`
	Total        decimal.Decimal     `json:"total"`
	Status       string              `json:"status"`
	Notes        string              `json:"notes,omitempty"`
	Terms        string              `json:"terms,omitempty"`
	ValidityDays int                 `json:"validity_days"`
	ExpiresAt    time.Time           `json:"expires_at"`
	SubmittedAt  *time.Time          `json:"submitted_at,omitempty"`
	AcceptedAt   *time.Time          `json:"accepted_at,omitempty"`
	RejectedAt   *time.Time          `json:"rejected_at,omitempty"`
	InvoicedAt   *time.Time          `json:"invoiced_at,omitempty"`
	ProductionAt *time.Time          `json:"production_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// QuoteListItemResponse represents a quote in list responses (less detail)
type QuoteListItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	Folio      string          `json:"folio"`
	Version    int             `json:"version"`
	ClientID   uuid.UUID       `json:"client_id"`
	ClientName string          `json:"client_name"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToQuoteResponse converts a domain Quote to a response DTO
func ToQuoteResponse(q *quote.Quote) QuoteResponse {
	items := make([]QuoteItemResponse, len(q.Items))
	for i := range q.Items {
		items[i] = QuoteItemResponse{
			ID:         q.Items[i].ID,
			PartNumber: q.Items[i].PartNumber,
			Name:       q.Items[i].Name,
			Quantity:   q.Items[i].Quantity,
			UnitPrice:  q.Items[i].UnitPrice,
			LineTotal:  q.Items[i].LineTotal,
			SpecURL:    q.Items[i].SpecURL,
		}
	}

	return QuoteResponse{
		ID:           q.ID,
		Folio:        q.Folio,
		Version:      q.Version,
		ParentFolio:  q.ParentFolio,
		ClientID:     q.ClientID,
		ClientName:   q.ClientName,
		Items:        items,
		ItemCount:    q.ItemCount(),
		Subtotal:     q.Subtotal,
		Tax:          q.Tax,
		Total:        q.Total,
		Status:       string(q.Status),
		Notes:        q.Notes,
		Terms:        q.Terms,
		ValidityDays: q.ValidityDays,
		ExpiresAt:    q.ExpiresAt(),
		SubmittedAt:  q.SubmittedAt,
		AcceptedAt:   q.AcceptedAt,
		RejectedAt:   q.RejectedAt,
		InvoicedAt:   q.InvoicedAt,
		ProductionAt: q.ProductionAt,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

// ToQuoteListItemResponse converts a domain Quote to a list item DTO
func ToQuoteListItemResponse(q *quote.Quote) QuoteListItemResponse {
	return QuoteListItemResponse{
		ID:         q.ID,
		Folio:      q.Folio,
		Version:    q.Version,
		ClientID:   q.ClientID,
		ClientName: q.ClientName,
		ItemCount:  q.ItemCount(),
		Total:      q.Total,
		Status:     string(q.Status),
		CreatedAt:  q.CreatedAt,
	}
}
