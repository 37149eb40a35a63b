package access

import "strings"

// Decision is the outcome of evaluating an email domain against the
// admission policy, before any registry lookup happens.
type Decision int

const (
	// DecisionDeny rejects the domain outright (consumer mail provider)
	DecisionDeny Decision = iota
	// DecisionAllow admits the domain without a registry lookup (operator staff)
	DecisionAllow
	// DecisionCheckRegistry defers to the client registry
	DecisionCheckRegistry
)

// DefaultDeniedDomains lists generic consumer mail providers that are
// never admitted, regardless of what the client registry contains.
var DefaultDeniedDomains = []string{
	"gmail.com",
	"googlemail.com",
	"hotmail.com",
	"outlook.com",
	"live.com",
	"yahoo.com",
	"yahoo.es",
	"icloud.com",
	"aol.com",
	"protonmail.com",
	"proton.me",
	"gmx.com",
	"mail.com",
}

// DomainPolicy decides how an email domain is admitted.
// The deny list always wins: a domain present on both lists is denied.
type DomainPolicy struct {
	denied  map[string]struct{}
	allowed map[string]struct{}
}

// NewDomainPolicy builds a policy from deny and allow lists.
// Domains are matched case-insensitively.
func NewDomainPolicy(denied, allowed []string) *DomainPolicy {
	p := &DomainPolicy{
		denied:  make(map[string]struct{}, len(denied)),
		allowed: make(map[string]struct{}, len(allowed)),
	}
	for _, d := range denied {
		p.denied[strings.ToLower(d)] = struct{}{}
	}
	for _, d := range allowed {
		p.allowed[strings.ToLower(d)] = struct{}{}
	}
	return p
}

// NewDefaultPolicy builds a policy with the default consumer deny list
// and the given operator allow list.
func NewDefaultPolicy(allowed []string) *DomainPolicy {
	return NewDomainPolicy(DefaultDeniedDomains, allowed)
}

// Evaluate classifies a domain. The deny list overrides every other rule.
func (p *DomainPolicy) Evaluate(domain string) Decision {
	d := strings.ToLower(domain)
	if _, ok := p.denied[d]; ok {
		return DecisionDeny
	}
	if _, ok := p.allowed[d]; ok {
		return DecisionAllow
	}
	return DecisionCheckRegistry
}
