package usecase

import (
	"context"
	"strings"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/google/uuid"
)

type SupplierInput struct {
	Name, Email, Phone, Address string
}

type Suppliers struct {
	repo SupplierRepo
	now  func() time.Time
}

func NewSuppliers(repo SupplierRepo) *Suppliers {
	return &Suppliers{repo: repo, now: time.Now}
}

func (s *Suppliers) List(ctx context.Context, search string) ([]domain.Supplier, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Suppliers) Create(ctx context.Context, in SupplierInput) (*domain.Supplier, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "Supplier name is required")
	}
	now := s.now()
	sup := &domain.Supplier{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}
