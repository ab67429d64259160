package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/session"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

type SessionResponse struct {
	SessionID string        `json:"session_id"`
	Reply     session.Reply `json:"reply"`
}

type TurnRequest struct {
	Text string `json:"text"`
}

type PaymentRequest struct {
	Status    model.PaymentStatus `json:"status"`
	OrderID   string              `json:"order_id,omitempty"`
	PaymentID string              `json:"payment_id,omitempty"`
	Signature string              `json:"signature,omitempty"`
}

type HistoryResponse struct {
	SessionID string                   `json:"session_id"`
	Turns     []model.ConversationTurn `json:"turns"`
}

// TranscriptEntry is one mirrored message with the flow and step it was heard in.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Flow    string `json:"flow,omitempty"`
	Step    string `json:"step,omitempty"`
}

type TranscriptResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []TranscriptEntry `json:"messages"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "sessions": s.registry.Len()})
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Create(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: sess.ID, Reply: sess.Welcome(r.Context())})
}

func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := sess.Handle(r.Context(), req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: sess.ID, Reply: reply})
}

func (s *Server) paymentHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != model.PaymentSuccess && req.Status != model.PaymentCancelled {
		writeError(w, http.StatusBadRequest, "status must be 'success' or 'cancelled'")
		return
	}

	data := model.PaymentData{OrderID: req.OrderID, PaymentID: req.PaymentID, Signature: req.Signature}
	if req.Status == model.PaymentSuccess && data.PaymentID == "" && s.payments != nil {
		orderID := data.OrderID
		if orderID == "" {
			if pending := sess.PendingPayment(); pending != nil {
				orderID = pending.OrderID
			}
		}
		if orderID != "" {
			data = s.payments.Complete(orderID)
			logx.Debug().Str("session_id", sess.ID).Str("orderID", orderID).Msg("payment simulated")
		}
	}

	reply, err := sess.PaymentCallback(r.Context(), req.Status, data)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: sess.ID, Reply: reply})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: sess.ID, Turns: sess.History(limit)})
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	msgs, err := sess.Transcript().Recent(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	entries := make([]TranscriptEntry, 0, len(msgs))
	for _, m := range msgs {
		flow, _ := m.Extra[model.ExtraFlow].(string)
		step, _ := m.Extra[model.ExtraStep].(string)
		entries = append(entries, TranscriptEntry{Role: string(m.Role), Content: m.Content, Flow: flow, Step: step})
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{SessionID: sess.ID, Messages: entries})
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeAppError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	message := errx.PublicMessage(err)
	var appErr *errx.AppError
	if !errors.As(err, &appErr) {
		logx.Error().Err(err).Msg("request failed")
		message = errx.SystemErrorMessage
	}
	writeError(w, status, message)
}
