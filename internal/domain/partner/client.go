package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Client represents a registered business client.
// The quote service consumes the client registry read-only: clients are
// managed elsewhere, here they only gate quote creation and portal access.
type Client struct {
	shared.BaseAggregateRoot
	LegalName string         `gorm:"type:varchar(200);not null" json:"legal_name"`
	TaxID     string         `gorm:"type:varchar(50);index" json:"tax_id"`
	Status    ClientStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Contacts  []Contact      `gorm:"foreignKey:ClientID" json:"contacts"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// Contact is a registered contact email of a client
type Contact struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Email    string    `gorm:"type:varchar(200);not null;index" json:"email"`
	// Domain is derived from Email at write time so gateway lookups can
	// match on an indexed column instead of parsing every row.
	Domain    string    `gorm:"type:varchar(200);not null;index" json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM
func (Contact) TableName() string {
	return "client_contacts"
}

// NewClient creates a new client with required fields
func NewClient(legalName, taxID string) (*Client, error) {
	if legalName == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Legal name cannot be empty")
	}

	return &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LegalName:         legalName,
		TaxID:             taxID,
		Status:            ClientStatusActive,
		Contacts:          make([]Contact, 0),
	}, nil
}

// AddContact registers a contact email for the client
func (c *Client) AddContact(email string) error {
	domain, ok := EmailDomain(email)
	if !ok {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid contact email")
	}

	c.Contacts = append(c.Contacts, Contact{
		ID:        uuid.New(),
		ClientID:  c.ID,
		Email:     strings.ToLower(email),
		Domain:    domain,
		CreatedAt: time.Now(),
	})
	c.UpdatedAt = time.Now()

	return nil
}

// Deactivate marks the client as inactive
func (c *Client) Deactivate() {
	c.Status = ClientStatusInactive
	c.UpdatedAt = time.Now()
}

// IsActive returns true if the client may transact
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive && !c.DeletedAt.Valid
}

// ContactDomains returns the distinct email domains registered for the client
func (c *Client) ContactDomains() []string {
	seen := make(map[string]struct{}, len(c.Contacts))
	domains := make([]string, 0, len(c.Contacts))
	for _, contact := range c.Contacts {
		if _, ok := seen[contact.Domain]; ok {
			continue
		}
		seen[contact.Domain] = struct{}{}
		domains = append(domains, contact.Domain)
	}
	return domains
}

// EmailDomain extracts the lowercase domain part of an email address.
// Returns false for anything that is not a plausible address.
func EmailDomain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if domain == "" || strings.ContainsAny(domain, " @") || !strings.Contains(domain, ".") {
		return "", false
	}
	return domain, true
}
