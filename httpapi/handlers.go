// Package httpapi exposes the listing wizard over JSON/HTTP. Handlers stay
// thin: every guard and transition lives in the wizard, payment, and listing
// packages so the state machine is testable without HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mcmarket/draft"
	"mcmarket/metrics"
	"mcmarket/payment"
	"mcmarket/registry"
	"mcmarket/wizard"
)

// Enricher is the lookup surface the handlers need from the registry service.
type Enricher interface {
	Lookup(ctx context.Context, id registry.Identifier, form *wizard.FormStore) (registry.CarrierRecord, error)
}

// Excursion is the payment surface the handlers need from the manager.
type Excursion interface {
	Begin(ctx context.Context, s *wizard.Session) (string, error)
	Resume(ctx context.Context, s *wizard.Session, sig payment.Signal) (payment.Outcome, error)
}

// Handler serves the wizard API.
type Handler struct {
	sessions *wizard.Sessions
	enricher Enricher
	payments Excursion
	bridge   draft.Store
	log      *log.Logger
	metrics  *metrics.Metrics
}

func NewHandler(sessions *wizard.Sessions, enricher Enricher, payments Excursion, bridge draft.Store, logger *log.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		sessions: sessions,
		enricher: enricher,
		payments: payments,
		bridge:   bridge,
		log:      logger,
		metrics:  m,
	}
}

// stateResponse is the wizard state as rendered to clients.
type stateResponse struct {
	SessionID  string              `json:"sessionId"`
	Step       int                 `json:"step"`
	StepName   string              `json:"stepName"`
	Status     string              `json:"status"`
	FailReason string              `json:"failReason,omitempty"`
	ListingID  string              `json:"listingId,omitempty"`
	Snapshot   wizard.FormSnapshot `json:"snapshot"`
}

func stateOf(s *wizard.Session) stateResponse {
	status, reason := s.Status()
	step := s.Nav.Current()
	return stateResponse{
		SessionID:  s.ID,
		Step:       int(step),
		StepName:   step.String(),
		Status:     string(status),
		FailReason: reason,
		ListingID:  s.ListingID(),
		Snapshot:   s.Form.Get(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) StartSession(w http.ResponseWriter, _ *http.Request) {
	s := h.sessions.Start()
	if h.metrics != nil {
		h.metrics.SessionsCreated.Inc()
	}
	writeJSON(w, http.StatusCreated, stateOf(s))
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

// Abandon clears the draft slot and tears the session down, so stale data
// cannot leak into an unrelated future attempt.
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	if err := h.bridge.Clear(r.Context(), s.ID); err != nil {
		h.log.Printf("abandon session=%s: clear draft: %v", s.ID, err)
	}
	h.sessions.Drop(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	var update wizard.FormUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed form update")
		return
	}
	s.Form.Apply(update)
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	snap := s.Form.Get()
	_, err = h.enricher.Lookup(r.Context(), registry.Identifier{MC: snap.MCNumber, DOT: snap.DOTNumber}, s.Form)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LookupsTotal.WithLabelValues("error").Inc()
		}
		switch {
		case errors.Is(err, wizard.ErrIdentifierRequired):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		case errors.Is(err, registry.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "no carrier found for identifier")
		default:
			writeError(w, http.StatusBadGateway, "upstream_error", "carrier registry unavailable")
		}
		return
	}
	if h.metrics != nil {
		h.metrics.LookupsTotal.WithLabelValues("ok").Inc()
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	if err := s.Nav.Advance(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	s.Nav.Retreat()
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Handler) JumpTo(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	var body struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed step request")
		return
	}
	if err := s.Nav.JumpTo(wizard.Step(body.Step)); err != nil {
		switch {
		case errors.Is(err, wizard.ErrStepNotReachable):
			writeError(w, http.StatusConflict, "step_not_reachable", err.Error())
		default:
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Handler) BeginPayment(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	redirectURL, err := h.payments.Begin(r.Context(), s)
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrIdentifierRequired):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		case errors.Is(err, payment.ErrSessionCreate):
			writeError(w, http.StatusBadGateway, "upstream_error", "payment provider unavailable; your data is saved, try again")
		default:
			h.log.Printf("begin payment session=%s: %v", s.ID, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirectUrl": redirectURL})
}

// outcomeResponse renders a reconciled return signal, including the explicit
// recovery actions for failed commits.
type outcomeResponse struct {
	Outcome   string        `json:"outcome"`
	ListingID string        `json:"listingId,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Actions   []string      `json:"actions,omitempty"`
	State     stateResponse `json:"state"`
}

func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		return
	}
	sig := payment.ParseSignal(r.URL.Query())
	outcome, err := h.payments.Resume(r.Context(), s, sig)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrBadToken):
			writeError(w, http.StatusBadRequest, "bad_token", "return signal could not be verified")
		case errors.Is(err, payment.ErrStaleAttempt):
			writeError(w, http.StatusConflict, "stale_attempt", "a newer payment attempt superseded this one")
		default:
			h.log.Printf("payment return session=%s: %v", s.ID, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	resp := outcomeResponse{
		ListingID: outcome.ListingID,
		Reason:    outcome.Reason,
		Actions:   outcome.Actions,
		State:     stateOf(s),
	}
	switch outcome.Kind {
	case payment.OutcomeCommitted:
		resp.Outcome = "committed"
	case payment.OutcomeCancelled:
		resp.Outcome = "cancelled"
	case payment.OutcomeFailed:
		resp.Outcome = "failed"
	case payment.OutcomeDuplicate:
		resp.Outcome = "already_committed"
	default:
		resp.Outcome = "none"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, error) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown or expired wizard session")
		return nil, err
	}
	return s, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders the error taxonomy. Internal errors omit the detail.
func writeError(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]string{"error": code}
	if detail != "" && status != http.StatusInternalServerError {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}
