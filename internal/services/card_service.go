package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fluxo/internal/core"
)

type CardStore interface {
	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	GetCard(ctx context.Context, ownerID, id string) (core.Card, error)
	UpdateCard(ctx context.Context, c core.Card) (core.Card, error)
	SetCardLimit(ctx context.Context, ownerID, id string, limit core.Money) (core.Card, error)
	DeleteCard(ctx context.Context, ownerID, id string) error
	ListCards(ctx context.Context, ownerID string) ([]core.Card, error)
}

type CardInput struct {
	Name       string
	Final4     string
	ClosingDay int
	DueDay     int
	Limit      core.Money
	Color      string
	Brand      string
}

type CardService struct {
	store CardStore
	newID func() string
}

func NewCardService(store CardStore) *CardService {
	return &CardService{store: store, newID: uuid.NewString}
}

func (s *CardService) Create(ctx context.Context, ownerID string, in CardInput) (core.Card, error) {
	c := in.card(s.newID(), ownerID)
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	return s.store.CreateCard(ctx, c)
}

func (s *CardService) Update(ctx context.Context, ownerID, id string, in CardInput) (core.Card, error) {
	c := in.card(id, ownerID)
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	return s.store.UpdateCard(ctx, c)
}

func (s *CardService) SetLimit(ctx context.Context, ownerID, id string, limit core.Money) (core.Card, error) {
	if limit.Cents < 0 {
		return core.Card{}, fmt.Errorf("%w: negative limit", core.ErrInvalidCard)
	}
	return s.store.SetCardLimit(ctx, ownerID, id, limit)
}

func (s *CardService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteCard(ctx, ownerID, id)
}

func (s *CardService) List(ctx context.Context, ownerID string) ([]core.Card, error) {
	return s.store.ListCards(ctx, ownerID)
}

func (in CardInput) card(id, ownerID string) core.Card {
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = core.DefaultCardColor
	}
	return core.Card{
		ID:         id,
		OwnerID:    ownerID,
		Name:       strings.TrimSpace(in.Name),
		Final4:     strings.TrimSpace(in.Final4),
		ClosingDay: in.ClosingDay,
		DueDay:     in.DueDay,
		Limit:      in.Limit,
		Color:      color,
		Brand:      strings.TrimSpace(in.Brand),
	}
}
