package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/storage"
)

const defaultCategoryIcon = "circle"

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	SeedCategories(ctx context.Context, cats []core.Category) error
	GetCategory(ctx context.Context, ownerID, id string) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeactivateCategory(ctx context.Context, ownerID, id string) error
	ListCategories(ctx context.Context, ownerID string, includeInactive bool) ([]core.Category, error)
}

type CategoryInput struct {
	Name         string
	Color        string
	Icon         string
	MonthlyLimit *core.Money
}

type CategoryService struct {
	store  CategoryStore
	logger *log.Logger
	newID  func() string
}

func NewCategoryService(store CategoryStore, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &CategoryService{store: store, logger: logger, newID: uuid.NewString}
}

// List returns the owner's active categories, seeding the default set the
// first time an owner has none.
func (s *CategoryService) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}

	seed := make([]core.Category, len(core.DefaultCategories))
	for i, c := range core.DefaultCategories {
		c.ID = s.newID()
		c.OwnerID = ownerID
		c.Active = true
		seed[i] = c
	}
	// A concurrent first listing may have seeded already.
	if err := s.store.SeedCategories(ctx, seed); err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	s.logger.InfoContext(ctx, "Seeded default categories", log.FieldOwnerID, ownerID)
	return s.store.ListCategories(ctx, ownerID, false)
}

func (s *CategoryService) Create(ctx context.Context, ownerID string, in CategoryInput) (core.Category, error) {
	c := in.category(s.newID(), ownerID)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.checkDuplicate(ctx, ownerID, "", c.Name); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id string, in CategoryInput) (core.Category, error) {
	c := in.category(id, ownerID)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.checkDuplicate(ctx, ownerID, id, c.Name); err != nil {
		return core.Category{}, err
	}
	return s.store.UpdateCategory(ctx, c)
}

// SetLimit changes only the monthly limit; nil clears it.
func (s *CategoryService) SetLimit(ctx context.Context, ownerID, id string, limit *core.Money) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.MonthlyLimit = limit
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.store.UpdateCategory(ctx, c)
}

func (s *CategoryService) Deactivate(ctx context.Context, ownerID, id string) error {
	return s.store.DeactivateCategory(ctx, ownerID, id)
}

// checkDuplicate compares names case-insensitively among active categories.
func (s *CategoryService) checkDuplicate(ctx context.Context, ownerID, selfID, name string) error {
	cats, err := s.store.ListCategories(ctx, ownerID, false)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if c.ID != selfID && strings.EqualFold(c.Name, name) {
			return fmt.Errorf("category %q: %w", name, storage.ErrDuplicate)
		}
	}
	return nil
}

func (in CategoryInput) category(id, ownerID string) core.Category {
	icon := strings.TrimSpace(in.Icon)
	if icon == "" {
		icon = defaultCategoryIcon
	}
	return core.Category{
		ID:           id,
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(in.Name),
		Color:        strings.TrimSpace(in.Color),
		Icon:         icon,
		MonthlyLimit: in.MonthlyLimit,
		Active:       true,
	}
}
