package http

import (
	"net/http"

	"fluxo/internal/core"
	"fluxo/internal/services"
)

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "dashboard stats", err)
		return
	}
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, r, "dashboard stats", err)
		return
	}
	stats, err := s.svc.Dashboard.Stats(r.Context(), owner, rng)
	if err != nil {
		s.writeError(w, r, "dashboard stats", err)
		return
	}
	NewResponse().JSON(stats).Write(w)
}

func (s *Server) handleDashboardCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "dashboard categories", err)
		return
	}
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, r, "dashboard categories", err)
		return
	}
	totals, err := s.svc.Dashboard.SpendingByCategory(r.Context(), owner, rng)
	if err != nil {
		s.writeError(w, r, "dashboard categories", err)
		return
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}
	NewResponse().JSON(totals).Write(w)
}

func (s *Server) handleDashboardRanking(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "dashboard ranking", err)
		return
	}
	rng, err := s.dateRange(r)
	if err != nil {
		s.writeError(w, r, "dashboard ranking", err)
		return
	}
	n, err := rankingLimit(r, services.DefaultRankingSize)
	if err != nil {
		s.writeError(w, r, "dashboard ranking", err)
		return
	}
	totals, err := s.svc.Dashboard.Ranking(r.Context(), owner, rng, n)
	if err != nil {
		s.writeError(w, r, "dashboard ranking", err)
		return
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}
	NewResponse().JSON(totals).Write(w)
}

// handleDashboardCards reports spending per card for the current period.
func (s *Server) handleDashboardCards(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "dashboard cards", err)
		return
	}
	spending, err := s.svc.Dashboard.CardSpending(r.Context(), owner, s.today())
	if err != nil {
		s.writeError(w, r, "dashboard cards", err)
		return
	}
	if spending == nil {
		spending = []core.CardSpending{}
	}
	NewResponse().JSON(spending).Write(w)
}
