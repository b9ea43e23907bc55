package http

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"fluxo/internal/core"
	"fluxo/internal/storage"
)

// OwnerHeader carries the caller identity set by the upstream auth proxy.
const OwnerHeader = "X-User-ID"

const (
	rangeAll        = "all"
	maxRankingLimit = 50
)

var (
	validOwnerID = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,128}$`)

	errInvalidOwner = errors.New("invalid " + OwnerHeader + " header")
	errInvalidLimit = errors.New("limit must be a positive integer")
)

// ownerID resolves the caller, falling back to the configured default owner.
func (s *Server) ownerID(r *http.Request) (string, error) {
	id := sanitizeInput(r.Header.Get(OwnerHeader))
	if id == "" {
		return s.defaultOwnerID, nil
	}
	if !validOwnerID.MatchString(id) {
		return "", errInvalidOwner
	}
	return id, nil
}

// dateRange resolves ?range= against today; an empty filter is the current month.
func (s *Server) dateRange(r *http.Request) (core.DateRange, error) {
	return core.ResolveRange(r.URL.Query().Get("range"), s.today())
}

// entryFilter builds the list filter from the query string. range=all lifts
// the date restriction.
func (s *Server) entryFilter(r *http.Request) (storage.EntryFilter, error) {
	q := r.URL.Query()
	f := storage.EntryFilter{
		Type:       core.EntryType(sanitizeInput(q.Get("type"))),
		CategoryID: sanitizeInput(q.Get("category")),
		CardID:     sanitizeInput(q.Get("card")),
	}
	if f.Type != "" && !f.Type.Valid() {
		return storage.EntryFilter{}, fmt.Errorf("%w: unknown type %q", core.ErrInvalidEntry, f.Type)
	}
	if strings.TrimSpace(q.Get("range")) == rangeAll {
		return f, nil
	}
	rng, err := s.dateRange(r)
	if err != nil {
		return storage.EntryFilter{}, err
	}
	f.Range = &rng
	return f, nil
}

// rankingLimit reads ?limit=, defaulting to def and capping at maxRankingLimit.
func rankingLimit(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errInvalidLimit
	}
	return min(n, maxRankingLimit), nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	if v == "" {
		return nil
	}
	return &v
}
