// Package httpapi is the thin HTTP surface over the engine: submit document
// updates, read the projection, restore historical versions.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/document"
	"github.com/kyuff/docflow/document/sqlite"
	"github.com/kyuff/docflow/hydrate"
)

type Server struct {
	store       *docflow.Store
	docs        *sqlite.Store
	log         zerolog.Logger
	waitTimeout time.Duration
	rateLimit   int
}

func NewServer(store *docflow.Store, docs *sqlite.Store, log zerolog.Logger, waitTimeout time.Duration, rateLimit int) *Server {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	if rateLimit <= 0 {
		rateLimit = 100
	}

	return &Server{
		store:       store,
		docs:        docs,
		log:         log,
		waitTimeout: waitTimeout,
		rateLimit:   rateLimit,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.log))
	r.Use(SecurityHeaders())
	r.Use(RateLimit(s.rateLimit, time.Minute))

	r.Route("/api/documents", func(r chi.Router) {
		r.Put("/{id}", s.putDocument)
		r.Get("/{id}", s.getDocument)
		r.Get("/{id}/versions", s.listVersions)
		r.Get("/{id}/versions/{version}", s.getVersion)
		r.Post("/{id}/versions/{version}/restore", s.restoreVersion)
	})

	return r
}

type putDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req putDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.submit(w, r, document.Document{ID: id, Title: req.Title, Content: req.Content})
}

func (s *Server) restoreVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	version, err := strconv.ParseInt(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version")
		return
	}

	row, err := s.docs.GetVersion(r.Context(), id, version)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document version not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("reading version")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	// Restoring appends a fresh CreatedOrUpdated; history stays untouched.
	s.submit(w, r, document.Document{ID: id, Title: row.Title, Content: row.Content})
}

// submit runs a CreateOrUpdate through the engine and responds with the
// projected document. A correlation subscription for the workflow's terminal
// event is registered before the command goes in; if the workflow does not
// finish within the wait budget the current projection is returned anyway.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, doc document.Document) {
	ctx, cancel := context.WithTimeout(r.Context(), s.waitTimeout)
	defer cancel()

	// A document that already settled has no running workflow, so there is
	// no terminal event to wait for on later updates.
	settled := false
	if prior, err := s.docs.Get(ctx, doc.ID); err == nil {
		settled = prior.Approval != string(document.ApprovalPending)
	}

	terminal := s.store.SubscribeCorrelation(func(event docflow.Event) bool {
		if event.AggregateType != document.AggregateType || event.AggregateID != doc.ID {
			return false
		}
		switch event.Content.(type) {
		case document.Approved, document.Rejected:
			return true
		}
		return false
	}, 1)
	defer terminal.Cancel()

	event, err := s.store.Execute(ctx, docflow.Command{
		AggregateType: document.AggregateType,
		AggregateID:   doc.ID,
		Content:       document.CreateOrUpdate{Document: doc},
	})

	var rejection *docflow.Rejection
	switch {
	case errors.As(err, &rejection):
		writeError(w, http.StatusConflict, "document not found: "+doc.ID)
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timed out, the update may still apply")
		return
	case err != nil:
		s.log.Error().Err(err).Str("id", doc.ID).Msg("executing command")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	// Best effort: give the approval workflow a chance to finish so the
	// response carries the final status.
	if !settled {
		_, _ = terminal.Wait(ctx)
	}

	row, err := s.hydrateRow(ctx, doc.ID, event.EventNumber)
	if err != nil {
		s.log.Error().Err(err).Str("id", doc.ID).Msg("hydrating document")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// hydrateRow polls the read model until it caught up to at least version.
func (s *Server) hydrateRow(ctx context.Context, id string, version int64) (sqlite.Row, error) {
	loader := hydrate.New(
		func(ctx context.Context, id string) (sqlite.Row, error) {
			row, err := s.docs.Get(ctx, id)
			if errors.Is(err, sqlite.ErrNotFound) {
				return sqlite.Row{}, nil
			}
			return row, err
		},
		hydrate.WithChecker(func(row sqlite.Row) bool {
			return row.Version >= version
		}),
		hydrate.WithFixedBackoff[sqlite.Row](25*time.Millisecond),
	)

	return loader.Hydrate(ctx, id)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	row, err := s.docs.Get(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("reading document")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	version, err := strconv.ParseInt(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version")
		return
	}

	row, err := s.docs.GetVersion(r.Context(), id, version)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document version not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("reading version")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	versions, err := s.docs.ListVersions(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("listing versions")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}
	if len(versions) == 0 {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
