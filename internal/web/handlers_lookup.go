package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

type matchRequest struct {
	SKUs   []string `json:"skus" validate:"required,min=1,max=5000,dive,max=255"`
	Source string   `json:"source" validate:"omitempty,oneof=ambient_inks atvenue dirtwire manual unknown"`
}

// handleMatch resolves a batch of SKUs and reports per-tier statistics.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, r, errInvalidReq, map[string]string{"body": "invalid JSON"})
		return
	}
	if fields := s.check(req); fields != nil {
		respondError(w, r, errInvalidReq, fields)
		return
	}

	batch, err := s.matcher.ResolveAll(r.Context(), req.SKUs, domain.Source(req.Source))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleStock returns the on-hand quantities of the variant a SKU resolves to.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	m, err := s.matcher.Resolve(r.Context(), sku, domain.SourceManual)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	if !m.Resolved() {
		respondError(w, r, store.NotFound("variant", sku), nil)
		return
	}

	stock, err := s.ledger.Summary(r.Context(), m.VariantID.UUID)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"match": m, "stock": stock})
}
