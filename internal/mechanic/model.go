package mechanic

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("mechanic not found")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrInvalidPhone       = errors.New("phone must be 8 digits")
	ErrPhoneAlreadyUsed   = errors.New("phone already registered")
	ErrUnknownService     = errors.New("unknown service key")
	ErrInvalidCredentials = errors.New("invalid mechanic credentials")
)

// Mechanic is a technician appointments can be assigned to. An empty
// ServiceKeys set means the mechanic performs every catalog service.
type Mechanic struct {
	ID          string
	Name        string
	Phone       string
	ServiceKeys []string
	CreatedAt   time.Time
}

// CanPerform reports whether the mechanic covers the given service.
func (m *Mechanic) CanPerform(serviceKey string) bool {
	if len(m.ServiceKeys) == 0 {
		return true
	}
	for _, k := range m.ServiceKeys {
		if k == serviceKey {
			return true
		}
	}
	return false
}

// Filter defines parameters for listing mechanics.
type Filter struct {
	ServiceKey string
	Page       int
	PageSize   int
}
