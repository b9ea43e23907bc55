package http

import (
	"net/http"
	"slices"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/services"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "list rules", err)
		return
	}
	rules, err := s.svc.Rules.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, "list rules", err)
		return
	}
	if rules == nil {
		rules = []services.RuleView{}
	}
	NewResponse().JSON(rules).Write(w)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "create rule", err)
		return
	}
	var req ruleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "create rule", err)
		return
	}
	rule, err := s.svc.Rules.Create(r.Context(), owner, req.input())
	if err != nil {
		s.writeError(w, r, "create rule", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(rule).Write(w)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "update rule", err)
		return
	}
	var req ruleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "update rule", err)
		return
	}
	rule, err := s.svc.Rules.Update(r.Context(), owner, r.PathValue("id"), req.input())
	if err != nil {
		s.writeError(w, r, "update rule", err)
		return
	}
	NewResponse().JSON(rule).Write(w)
}

func (s *Server) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "deactivate rule", err)
		return
	}
	if err := s.svc.Rules.Deactivate(r.Context(), owner, r.PathValue("id")); err != nil {
		s.writeError(w, r, "deactivate rule", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

type sweepResponse struct {
	RulesEvaluated int `json:"rulesEvaluated"`
	EntriesCreated int `json:"entriesCreated"`
}

// handleSyncRecurring is the client trigger: it catches up the caller's rules.
func (s *Server) handleSyncRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "sync recurring", err)
		return
	}
	s.sweep(w, r, core.OwnerScope(owner))
}

// handleProcessRecurring is the operator trigger: it sweeps every owner.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	s.sweep(w, r, core.AllOwners())
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request, scope core.Scope) {
	res, err := s.svc.Sweeper.RunCatchUpSweep(r.Context(), scope, s.now())
	if err != nil {
		s.writeError(w, r, "recurring sweep", err)
		return
	}
	s.logger.InfoContext(r.Context(), "Recurring sweep served",
		log.FieldOwnerID, scope.Key(),
		"rules_evaluated", res.RulesEvaluated,
		"entries_created", res.EntriesCreated)

	b := NewResponse().JSON(sweepResponse{
		RulesEvaluated: res.RulesEvaluated,
		EntriesCreated: res.EntriesCreated,
	})
	if res.EntriesCreated > 0 {
		b.TriggerLedgerChanged(sweptPeriods(res, scope)...)
	}
	b.Write(w)
}

func sweptPeriods(res services.SweepResult, scope core.Scope) []string {
	var periods []string
	for owner, ps := range res.PeriodsByOwner {
		if scope.All() || owner == scope.OwnerID {
			periods = append(periods, ps...)
		}
	}
	slices.Sort(periods)
	return slices.Compact(periods)
}
