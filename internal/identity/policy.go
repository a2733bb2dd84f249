package identity

import (
	"strings"

	"github.com/atinyakov/winnermind/internal/models"
)

// Policy is the privilege predicate: accounts whose email belongs to the
// trusted domain are administrators.
type Policy struct {
	TrustedDomain string
}

// IsPrivileged reports whether the session may use administrative operations.
func (p Policy) IsPrivileged(s *models.Session) bool {
	if s == nil {
		return false
	}
	return p.matches(s.Email)
}

// RoleFor returns the role recorded for a new account.
func (p Policy) RoleFor(email string) models.Role {
	if p.matches(email) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func (p Policy) matches(email string) bool {
	if p.TrustedDomain == "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], p.TrustedDomain)
}
