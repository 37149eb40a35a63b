package document

import (
	"context"
	"fmt"

	"github.com/quotedesk/backend/internal/domain/document"
	"github.com/quotedesk/backend/internal/domain/partner"
	"github.com/quotedesk/backend/internal/domain/quote"
)

// Service renders printable artifacts for quote revisions
type Service struct {
	quotes   quote.Repository
	clients  partner.ClientRepository
	renderer document.Renderer
	baseURL  string
}

// NewService creates a new document Service. baseURL is the public origin
// embedded in verification URLs.
func NewService(quotes quote.Repository, clients partner.ClientRepository, renderer document.Renderer, baseURL string) *Service {
	return &Service{
		quotes:   quotes,
		clients:  clients,
		renderer: renderer,
		baseURL:  baseURL,
	}
}

// RenderLatest renders the latest revision of a lineage. The verification
// URL resolves by folio, so a reader scanning an outdated printout is
// always pointed at the current revision.
func (s *Service) RenderLatest(ctx context.Context, folio string) (*document.RenderResult, error) {
	q, err := s.quotes.FindLatestByFolio(ctx, folio)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, q)
}

func (s *Service) render(ctx context.Context, q *quote.Quote) (*document.RenderResult, error) {
	taxID := ""
	if client, err := s.clients.FindByID(ctx, q.ClientID); err == nil {
		taxID = client.TaxID
	}

	req := &document.RenderRequest{
		Snapshot:        document.NewSnapshot(q, taxID),
		VerificationURL: s.VerificationURL(q.Folio),
	}
	return s.renderer.Render(ctx, req)
}

// VerificationURL returns the public URL at which a lineage can be verified
func (s *Service) VerificationURL(folio string) string {
	return fmt.Sprintf("%s/verify/%s", s.baseURL, folio)
}
