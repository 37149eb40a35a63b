package quote

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/partner"
	"github.com/quotedesk/backend/internal/domain/quote"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/quotedesk/backend/internal/domain/shared/valueobject"
)

// maxConflictRetries bounds how often a create or revision is retried
// against refreshed state before the conflict is surfaced to the caller.
const maxConflictRetries = 3

// maxTransientRetries bounds how often a transiently failing dependency
// (sequencer, client registry) is retried before the outage is surfaced.
const maxTransientRetries = 3

const retryBackoff = 25 * time.Millisecond

// Service handles quote business operations
type Service struct {
	repo       quote.Repository
	sequencer  quote.FolioSequencer
	clientRepo partner.ClientRepository
}

// NewService creates a new quote Service
func NewService(repo quote.Repository, sequencer quote.FolioSequencer, clientRepo partner.ClientRepository) *Service {
	return &Service{
		repo:       repo,
		sequencer:  sequencer,
		clientRepo: clientRepo,
	}
}

// Create issues a new quote lineage. The folio comes from the sequencer
// and the totals are recomputed from the items regardless of what the
// caller sent.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest) (*QuoteResponse, error) {
	var client *partner.Client
	err := retryTransient(ctx, func() error {
		var lookupErr error
		client, lookupErr = s.clientRepo.FindActiveByID(ctx, req.ClientID)
		return lookupErr
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Client is unknown or inactive")
		}
		return nil, err
	}

	var q *quote.Quote
	for attempt := 0; ; attempt++ {
		var folio string
		err := retryTransient(ctx, func() error {
			var issueErr error
			folio, issueErr = s.sequencer.IssueFolio(ctx)
			return issueErr
		})
		if err != nil {
			return nil, err
		}

		q, err = s.buildQuote(folio, client, req)
		if err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, q)
		if err == nil {
			break
		}
		// A folio collision means another writer raced the sequencer
		// backend; allocate a fresh folio and try again.
		if !errors.Is(err, shared.ErrConflict) || attempt >= maxConflictRetries {
			return nil, err
		}
		sleepBackoff(ctx, attempt)
	}
	q.ClearDomainEvents()

	response := ToQuoteResponse(q)
	return &response, nil
}

func (s *Service) buildQuote(folio string, client *partner.Client, req CreateQuoteRequest) (*quote.Quote, error) {
	q, err := quote.New(folio, client.ID, client.LegalName)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if _, err := q.AddItem(item.PartNumber, item.Name, item.Quantity,
			valueobject.NewMoneyCLP(item.UnitPrice), item.SpecURL); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		q.SetNotes(req.Notes)
	}
	if req.Terms != "" {
		q.SetTerms(req.Terms)
	}
	if req.ValidityDays > 0 {
		if err := q.SetValidityDays(req.ValidityDays); err != nil {
			return nil, err
		}
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	if req.Submit {
		if err := q.Submit(); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// CreateRevision derives the next revision of a lineage from its current
// latest member. On a concurrent revision race the loser refreshes the
// parent and retries; after the retry budget the conflict is surfaced.
func (s *Service) CreateRevision(ctx context.Context, folio string, req ReviseQuoteRequest) (*QuoteResponse, error) {
	var rev *quote.Quote
	for attempt := 0; ; attempt++ {
		parent, err := s.repo.FindLatestByFolio(ctx, folio)
		if err != nil {
			return nil, err
		}

		rev, err = quote.NewRevision(parent)
		if err != nil {
			return nil, err
		}
		if err := s.applyRevisionChanges(rev, req); err != nil {
			return nil, err
		}

		err = s.repo.SaveRevision(ctx, rev)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConflict) || attempt >= maxConflictRetries {
			return nil, err
		}
		sleepBackoff(ctx, attempt)
	}
	rev.ClearDomainEvents()

	response := ToQuoteResponse(rev)
	return &response, nil
}

func (s *Service) applyRevisionChanges(rev *quote.Quote, req ReviseQuoteRequest) error {
	if len(req.Items) > 0 {
		rev.Items = rev.Items[:0]
		for _, item := range req.Items {
			if _, err := rev.AddItem(item.PartNumber, item.Name, item.Quantity,
				valueobject.NewMoneyCLP(item.UnitPrice), item.SpecURL); err != nil {
				return err
			}
		}
	}
	if req.Notes != nil {
		rev.SetNotes(*req.Notes)
	}
	if req.Terms != nil {
		rev.SetTerms(*req.Terms)
	}
	if req.ValidityDays != nil {
		if err := rev.SetValidityDays(*req.ValidityDays); err != nil {
			return err
		}
	}
	return rev.Validate()
}

// Submit opens a draft quote
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, id, (*quote.Quote).Submit)
}

// Accept marks an open quote as accepted by the client
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, id, (*quote.Quote).Accept)
}

// Reject marks an open quote as rejected
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, id, (*quote.Quote).Reject)
}

// MarkInvoiced marks an accepted quote as invoiced
func (s *Service) MarkInvoiced(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, id, (*quote.Quote).MarkInvoiced)
}

// StartProduction moves an open or accepted quote into production
func (s *Service) StartProduction(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, id, (*quote.Quote).StartProduction)
}

// transition loads the revision, applies the domain transition, and
// persists it with a compare-and-set on the previous status. A raced
// transition comes back as shared.ErrConflict with the stored state
// unchanged; it is not retried, the caller must re-read and decide.
func (s *Service) transition(ctx context.Context, id uuid.UUID, apply func(*quote.Quote) error) (*QuoteResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := q.Status
	if err := apply(q); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, q, previous); err != nil {
		return nil, err
	}
	q.ClearDomainEvents()

	response := ToQuoteResponse(q)
	return &response, nil
}

// ResolveByFolio returns the latest revision of a lineage, regardless of
// its status. A superseding rejected revision is still the answer: the
// freshest terms win.
func (s *Service) ResolveByFolio(ctx context.Context, folio string) (*QuoteResponse, error) {
	q, err := s.repo.FindLatestByFolio(ctx, folio)
	if err != nil {
		return nil, err
	}
	response := ToQuoteResponse(q)
	return &response, nil
}

// ResolveByID returns the exact revision referenced by id
func (s *Service) ResolveByID(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToQuoteResponse(q)
	return &response, nil
}

// GetLineage returns every revision of a folio ordered by version
func (s *Service) GetLineage(ctx context.Context, folio string) ([]QuoteResponse, error) {
	quotes, err := s.repo.FindByFolio(ctx, folio)
	if err != nil {
		return nil, err
	}

	responses := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		responses[i] = ToQuoteResponse(&quotes[i])
	}
	return responses, nil
}

// List retrieves quotes with filtering and pagination
func (s *Service) List(ctx context.Context, filter QuoteListFilter) ([]QuoteListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, shared.NewDomainError("VALIDATION_ERROR", "Invalid client id")
		}
		domainFilter.Filters["client_id"] = clientID
	}
	if filter.LatestOnly {
		domainFilter.Filters["latest_only"] = true
	}

	quotes, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]QuoteListItemResponse, len(quotes))
	for i := range quotes {
		items[i] = ToQuoteListItemResponse(&quotes[i])
	}
	return items, total, nil
}

// retryTransient runs op, repeating it after a backoff while it keeps
// failing with shared.ErrTransient. The last error is surfaced once the
// attempt budget is spent.
func retryTransient(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, shared.ErrTransient) || attempt >= maxTransientRetries {
			return err
		}
		sleepBackoff(ctx, attempt)
	}
}

func sleepBackoff(ctx context.Context, attempt int) {
	select {
	case <-time.After(retryBackoff << attempt):
	case <-ctx.Done():
	}
}
