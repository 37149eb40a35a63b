package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	quoteapp "github.com/quotedesk/backend/internal/application/quote"
	"github.com/quotedesk/backend/internal/domain/shared"
)

// VerificationResponse is the public answer for a verification lookup.
// An unregistered folio gets the same shape with Registered false and
// nothing else, so the endpoint reveals no more than the printout
// already shows.
type VerificationResponse struct {
	Folio      string           `json:"folio"`
	Registered bool             `json:"registered"`
	Version    int              `json:"version,omitempty"`
	Status     string           `json:"status,omitempty"`
	ClientName string           `json:"client_name,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	IssuedAt   *time.Time       `json:"issued_at,omitempty"`
}

// VerificationHandler answers public verification lookups for printed
// quotes. No session is required; anyone holding a printout may check
// that the document is registered and current.
type VerificationHandler struct {
	BaseHandler
	quoteService *quoteapp.Service
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(quoteService *quoteapp.Service) *VerificationHandler {
	return &VerificationHandler{
		quoteService: quoteService,
	}
}

// RegisterRoutes registers all verification routes
func (h *VerificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/verify/:ref", h.Verify)
}

// Verify resolves a printed reference to its registered revision. A
// folio resolves to the latest revision of the lineage, so the answer
// stays current even when the scanned printout is an older one; an
// opaque revision ID resolves that exact row.
func (h *VerificationHandler) Verify(c *gin.Context) {
	ref := c.Param("ref")

	var result *quoteapp.QuoteResponse
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		result, err = h.quoteService.ResolveByID(c.Request.Context(), id)
	} else {
		result, err = h.quoteService.ResolveByFolio(c.Request.Context(), ref)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.Success(c, VerificationResponse{Folio: ref, Registered: false})
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, VerificationResponse{
		Folio:      result.Folio,
		Registered: true,
		Version:    result.Version,
		Status:     result.Status,
		ClientName: result.ClientName,
		Total:      &result.Total,
		Currency:   "CLP",
		IssuedAt:   result.SubmittedAt,
	})
}
