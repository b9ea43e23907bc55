package http

import (
	"net/http"

	"fluxo/internal/core"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "list entries", err)
		return
	}
	filter, err := s.entryFilter(r)
	if err != nil {
		s.writeError(w, r, "list entries", err)
		return
	}
	entries, err := s.svc.Entries.List(r.Context(), owner, filter)
	if err != nil {
		s.writeError(w, r, "list entries", err)
		return
	}
	if entries == nil {
		entries = []core.LedgerEntry{}
	}
	NewResponse().JSON(entries).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "create entry", err)
		return
	}
	var req entryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "create entry", err)
		return
	}
	entry, err := s.svc.Entries.Create(r.Context(), owner, req.input(s.today()))
	if err != nil {
		s.writeError(w, r, "create entry", err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		TriggerLedgerChanged(entry.Period).
		JSON(entry).
		Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "update entry", err)
		return
	}
	var req entryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, "update entry", err)
		return
	}
	entry, err := s.svc.Entries.Update(r.Context(), owner, r.PathValue("id"), req.input(s.today()))
	if err != nil {
		s.writeError(w, r, "update entry", err)
		return
	}
	NewResponse().TriggerLedgerChanged(entry.Period).JSON(entry).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerID(r)
	if err != nil {
		s.writeError(w, r, "delete entry", err)
		return
	}
	if err := s.svc.Entries.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		s.writeError(w, r, "delete entry", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).TriggerLedgerChanged().Write(w)
}
