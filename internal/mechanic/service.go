package mechanic

import (
	"context"
	"regexp"
	"strings"

	"github.com/vmontano/taller-booking-backend/internal/servicetype"
)

type CreateRequest struct {
	Name        string
	Phone       string
	ServiceKeys []string
}

type UpdateRequest struct {
	Name        *string
	Phone       *string
	ServiceKeys *[]string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Mechanic, error)
	GetByID(ctx context.Context, id string) (*Mechanic, error)
	List(ctx context.Context, filter Filter) ([]*Mechanic, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Mechanic, error)
	Delete(ctx context.Context, id string) error

	// Authenticate validates the phone/name pair mechanics sign in with.
	Authenticate(ctx context.Context, phone, name string) (*Mechanic, error)
}

var phonePattern = regexp.MustCompile(`^\d{8}$`)

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateServiceKeys(keys []string) error {
	for _, k := range keys {
		if _, ok := servicetype.ByKey(k); !ok {
			return ErrUnknownService
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Mechanic, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, ErrInvalidPhone
	}
	if err := validateServiceKeys(req.ServiceKeys); err != nil {
		return nil, err
	}

	m := &Mechanic{
		Name:        name,
		Phone:       req.Phone,
		ServiceKeys: req.ServiceKeys,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Mechanic, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Mechanic, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Mechanic, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		m.Name = name
	}
	if req.Phone != nil {
		if !phonePattern.MatchString(*req.Phone) {
			return nil, ErrInvalidPhone
		}
		m.Phone = *req.Phone
	}
	if req.ServiceKeys != nil {
		if err := validateServiceKeys(*req.ServiceKeys); err != nil {
			return nil, err
		}
		m.ServiceKeys = *req.ServiceKeys
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) Authenticate(ctx context.Context, phone, name string) (*Mechanic, error) {
	m, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(name), m.Name) {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}
