package http

import (
	"fmt"
	"net/http"

	"fluxo/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "list categories", err)
		return
	}
	cats, err := s.svc.Categories.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, "list categories", err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	NewResponse().JSON(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "create category", err)
		return
	}
	var req categoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "create category", err)
		return
	}
	cat, err := s.svc.Categories.Create(r.Context(), owner, req.input())
	if err != nil {
		s.writeError(w, r, "create category", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(cat).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "update category", err)
		return
	}
	var req categoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "update category", err)
		return
	}
	cat, err := s.svc.Categories.Update(r.Context(), owner, r.PathValue("id"), req.input())
	if err != nil {
		s.writeError(w, r, "update category", err)
		return
	}
	NewResponse().JSON(cat).Write(w)
}

func (s *Server) handleSetCategoryLimit(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "set category limit", err)
		return
	}
	var req limitRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "set category limit", err)
		return
	}
	cat, err := s.svc.Categories.SetLimit(r.Context(), owner, r.PathValue("id"), req.Limit)
	if err != nil {
		s.writeError(w, r, "set category limit", err)
		return
	}
	NewResponse().JSON(cat).Write(w)
}

func (s *Server) handleDeactivateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "deactivate category", err)
		return
	}
	if err := s.svc.Categories.Deactivate(r.Context(), owner, r.PathValue("id")); err != nil {
		s.writeError(w, r, "deactivate category", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "list cards", err)
		return
	}
	cards, err := s.svc.Cards.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, "list cards", err)
		return
	}
	if cards == nil {
		cards = []core.Card{}
	}
	NewResponse().JSON(cards).Write(w)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "create card", err)
		return
	}
	var req cardRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "create card", err)
		return
	}
	card, err := s.svc.Cards.Create(r.Context(), owner, req.input())
	if err != nil {
		s.writeError(w, r, "create card", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(card).Write(w)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "update card", err)
		return
	}
	var req cardRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "update card", err)
		return
	}
	card, err := s.svc.Cards.Update(r.Context(), owner, r.PathValue("id"), req.input())
	if err != nil {
		s.writeError(w, r, "update card", err)
		return
	}
	NewResponse().JSON(card).Write(w)
}

func (s *Server) handleSetCardLimit(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "set card limit", err)
		return
	}
	var req limitRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "set card limit", err)
		return
	}
	if req.Limit == nil {
		s.writeError(w, r, "set card limit", fmt.Errorf("%w: limit is required", core.ErrInvalidCard))
		return
	}
	card, err := s.svc.Cards.SetLimit(r.Context(), owner, r.PathValue("id"), *req.Limit)
	if err != nil {
		s.writeError(w, r, "set card limit", err)
		return
	}
	NewResponse().JSON(card).Write(w)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "delete card", err)
		return
	}
	if err := s.svc.Cards.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		s.writeError(w, r, "delete card", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
