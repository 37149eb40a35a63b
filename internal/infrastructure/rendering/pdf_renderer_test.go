package rendering

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/quotedesk/backend/internal/domain/document"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() *document.RenderRequest {
	issuedAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return &document.RenderRequest{
		Snapshot: document.Snapshot{
			Folio:       "Q-1042",
			Version:     2,
			ClientName:  "Aceros del Sur SpA",
			ClientTaxID: "76.543.210-K",
			Items: []document.SnapshotItem{
				{
					PartNumber: "FLG-150",
					Name:       "Flange acero inoxidable 150mm",
					Quantity:   4,
					UnitPrice:  decimal.NewFromInt(45000),
					LineTotal:  decimal.NewFromInt(180000),
				},
			},
			Subtotal:     decimal.NewFromInt(180000),
			Tax:          decimal.NewFromInt(34200),
			Total:        decimal.NewFromInt(214200),
			Terms:        "Pago a 30 días.",
			ValidityDays: 30,
			IssuedAt:     issuedAt,
		},
		VerificationURL: "https://quotedesk.cl/verify/Q-1042/2",
	}
}

func TestPDFRenderer_Render(t *testing.T) {
	renderer := NewPDFRenderer("QuoteDesk SpA")

	result, err := renderer.Render(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Data)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")), "output is a PDF document")
}

func TestPDFRenderer_Deterministic(t *testing.T) {
	renderer := NewPDFRenderer("QuoteDesk SpA")
	ctx := context.Background()

	first, err := renderer.Render(ctx, sampleRequest())
	require.NoError(t, err)
	second, err := renderer.Render(ctx, sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data, "identical input yields identical bytes")
}

func TestPDFRenderer_InputChangesOutput(t *testing.T) {
	renderer := NewPDFRenderer("QuoteDesk SpA")
	ctx := context.Background()

	base, err := renderer.Render(ctx, sampleRequest())
	require.NoError(t, err)

	changed := sampleRequest()
	changed.Snapshot.Version = 3
	other, err := renderer.Render(ctx, changed)
	require.NoError(t, err)

	assert.NotEqual(t, base.Data, other.Data)
}

func TestPDFRenderer_NoVerificationURL(t *testing.T) {
	renderer := NewPDFRenderer("QuoteDesk SpA")

	req := sampleRequest()
	req.VerificationURL = ""

	result, err := renderer.Render(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Data)
}
