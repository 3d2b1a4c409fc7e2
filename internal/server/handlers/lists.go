package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

// Lists serves work list management endpoints.
type Lists struct {
	store *worklist.Store
}

// NewLists creates the handler set over store.
func NewLists(store *worklist.Store) *Lists {
	return &Lists{store: store}
}

// List serves GET /lists?dir=&pattern= — enumeration only, no parsing.
func (h *Lists) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List(r.URL.Query().Get("dir"), r.URL.Query().Get("pattern"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": names})
}

type saveListRequest struct {
	Items    []string `json:"items"`
	Basename string   `json:"basename"`
}

// Save serves POST /lists — persists a new single-column list.
func (h *Lists) Save(w http.ResponseWriter, r *http.Request) {
	var req saveListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, r, "invalid JSON body: "+err.Error())
		return
	}
	if req.Basename == "" {
		writeValidationError(w, r, "basename is required")
		return
	}

	source, err := h.store.Save(req.Items, req.Basename)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"source": source})
}

type loadListRequest struct {
	Source string `json:"source"`
}

type loadListResponse struct {
	Source  string            `json:"source"`
	Summary *worklist.Preview `json:"summary"`
}

// Load serves POST /lists/load — loads a list, returns its preview, and
// primes the session list for a subsequent run.
func (h *Lists) Load(w http.ResponseWriter, r *http.Request) {
	var req loadListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, r, "invalid JSON body: "+err.Error())
		return
	}
	if req.Source == "" {
		writeValidationError(w, r, "source is required")
		return
	}

	list, preview, err := h.store.Load(req.Source)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadListResponse{Source: list.Source, Summary: preview})
}

// writeJSON renders v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
