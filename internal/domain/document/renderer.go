package document

import (
	"context"
	"time"

	"github.com/quotedesk/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// SnapshotItem is one line of an immutable quote snapshot
type SnapshotItem struct {
	PartNumber string          `json:"part_number"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	SpecURL    string          `json:"spec_url,omitempty"`
}

// Snapshot is the immutable input to the renderer. It carries everything
// the artifact needs so that re-rendering the same snapshot later yields
// an equivalent artifact, independent of the current database state.
type Snapshot struct {
	Folio        string          `json:"folio"`
	Version      int             `json:"version"`
	ClientName   string          `json:"client_name"`
	ClientTaxID  string          `json:"client_tax_id,omitempty"`
	Items        []SnapshotItem  `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"notes,omitempty"`
	Terms        string          `json:"terms,omitempty"`
	ValidityDays int             `json:"validity_days"`
	IssuedAt     time.Time       `json:"issued_at"`
}

// NewSnapshot freezes a quote revision for rendering
func NewSnapshot(q *quote.Quote, clientTaxID string) Snapshot {
	items := make([]SnapshotItem, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, SnapshotItem{
			PartNumber: item.PartNumber,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  item.LineTotal,
			SpecURL:    item.SpecURL,
		})
	}
	return Snapshot{
		Folio:        q.Folio,
		Version:      q.Version,
		ClientName:   q.ClientName,
		ClientTaxID:  clientTaxID,
		Items:        items,
		Subtotal:     q.Subtotal,
		Tax:          q.Tax,
		Total:        q.Total,
		Notes:        q.Notes,
		Terms:        q.Terms,
		ValidityDays: q.ValidityDays,
		IssuedAt:     q.CreatedAt,
	}
}

// RenderRequest contains the parameters for rendering a quote artifact
type RenderRequest struct {
	// Snapshot is the frozen quote revision to render
	Snapshot Snapshot
	// VerificationURL is embedded both as text and as a machine-readable code
	VerificationURL string
}

// RenderResult contains the output of a render
type RenderResult struct {
	// Data is the raw artifact content
	Data []byte
	// ContentType is the MIME type of the artifact
	ContentType string
}

// Renderer produces a printable artifact from an immutable snapshot.
// Rendering must be deterministic: identical snapshot and verification
// URL always yield an equivalent artifact, so regenerating a document
// for audit never drifts from the one originally distributed.
type Renderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
}
