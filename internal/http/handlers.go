package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"spendy/internal/core"
	"spendy/internal/ledger"
	"spendy/internal/log"
)

const readinessTimeout = 5 * time.Second

// handleHealth performs basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": s.rateLimiter.activeClients(),
			"status":         "ok",
		},
	}

	if s.ready == nil {
		checks["backend"] = "not_configured"
	} else if err := s.ready(ctx); err != nil {
		checks["backend"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	// Serving continues on partially loaded data.
	if s.loadErr != nil {
		checks["load"] = fmt.Sprintf("failed: %v", s.loadErr)
		if httpStatus == http.StatusOK {
			status = "degraded"
		}
	} else {
		checks["load"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMonth returns the month summary. It is recomputed on every request.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	m, err := s.parseMonth(r.PathValue("month"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Summary(m))
}

type createTransactionRequest struct {
	Type     string      `json:"type"`
	Amount   amountInput `json:"amount"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
	// YYYY-MM; empty means the current month.
	Month string `json:"month"`
}

// handleCreateTransaction records a new entry. An empty category falls back to the
// selected one when the selection has the entry's type.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := core.ParseType(req.Type)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	month, err := s.parseMonth(req.Month)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	category := sanitizeInput(req.Category)
	if sel := s.store.Selected(); category == "" && sel.Type == t {
		category = sel.Category
	}

	tx, err := s.store.AddTransaction(ledger.AddInput{
		Type:     t,
		Amount:   string(req.Amount),
		Category: category,
		Note:     sanitizeInput(req.Note),
	}, month)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionAdded(r.Context(), tx.ID, string(tx.Type), tx.Amount.Cents, tx.Category, month.String())
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tx, ok := s.store.Transaction(id)
	if !ok {
		s.writeError(w, r, log.OpRead, fmt.Errorf("%w: transaction %q", errNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.RemoveTransaction(id) {
		s.writeError(w, r, log.OpDelete, fmt.Errorf("%w: transaction %q", errNotFound, id))
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction removed",
		log.FieldTransactionID, id, log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

type categoryRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := core.ParseType(req.Type)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	name, err := s.store.AddCategory(t, sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryRequest{Type: string(t), Name: name})
}

// handleBeginCategoryDeletion runs the dependency check and returns the plan.
func (s *Server) handleBeginCategoryDeletion(w http.ResponseWriter, r *http.Request) {
	t, err := core.ParseType(r.PathValue("type"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	plan, err := s.store.BeginCategoryDeletion(t, r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleResolveCategoryDeletion applies ?action= (and ?target= for reassign).
// ?state= carries the plan state the client decided on; a changed ledger makes it stale.
func (s *Server) handleResolveCategoryDeletion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := core.ParseType(r.PathValue("type"))
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	action, err := ledger.ParseAction(q.Get("action"))
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	plan, err := s.store.BeginCategoryDeletion(t, r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if state := q.Get("state"); state != "" {
		switch st := ledger.State(state); st {
		case ledger.StateSimpleConfirm, ledger.StateConflictResolution:
			plan.State = st
		default:
			s.writeError(w, r, log.OpDelete, fmt.Errorf("%w: unknown state %q", errBadRequest, state))
			return
		}
	}

	out, err := s.store.ResolveCategoryDeletion(plan, ledger.Decision{Action: action, Target: sanitizeInput(q.Get("target"))})
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if out.Mutated {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogCategoryDeleted(r.Context(),
			string(out.Type), out.Category, string(out.Action), out.Removed, out.Reassigned, out.Target)
	}
	writeJSON(w, http.StatusOK, out)
}

type themeBody struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Theme: string(s.store.Theme())})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	th, err := core.ParseTheme(req.Theme)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if err := s.store.SetTheme(th); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(th)})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Selected())
}

// handleSetSelection changes the preselected category. An empty category clears it.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req ledger.Selection
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	sel := ledger.Selection{Category: sanitizeInput(req.Category)}
	if sel.Category != "" {
		t, err := core.ParseType(string(req.Type))
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		sel.Type = t
	}
	if err := s.store.Select(sel); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Selected())
}
