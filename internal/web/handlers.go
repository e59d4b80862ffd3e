package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ryosukesatoh/daily-brief/internal/report"
	"github.com/ryosukesatoh/daily-brief/internal/store"
)

var validate = validator.New()

type subscribeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Language string `json:"language" validate:"required,oneof=ko en"`
}

type unsubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	daily, err := s.store.LatestDailyReport(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "no daily report yet")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load latest daily report")
		s.respondError(w, r, http.StatusInternalServerError, "failed to load report")
		return
	}
	s.respondJSON(w, r, http.StatusOK, daily)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.store.ListIndividualReports(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list individual reports")
		s.respondError(w, r, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []report.Individual{}
	}
	s.respondJSON(w, r, http.StatusOK, reports)
}

func (s *Server) handleLatestRate(w http.ResponseWriter, r *http.Request) {
	rate, err := s.store.LatestExchangeRate(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "no exchange rate yet")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load latest exchange rate")
		s.respondError(w, r, http.StatusInternalServerError, "failed to load exchange rate")
		return
	}
	s.respondJSON(w, r, http.StatusOK, rate)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := s.store.Subscribe(r.Context(), req.Email, report.Language(req.Language)); err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to subscribe")
		s.respondError(w, r, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	s.logger.Info().Str("email", req.Email).Str("language", req.Language).Msg("Subscribed")
	s.notifySubscription(r.Context(), req.Email, req.Language)
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "subscribed"})
}

// notifySubscription tells the administrator about a new subscriber. A failed
// alert is logged and does not fail the subscription.
func (s *Server) notifySubscription(ctx context.Context, email, lang string) {
	if s.alerter == nil {
		return
	}
	subject := "🔔 신규 구독자: " + email
	body := fmt.Sprintf("DB에 새로운 구독자가 등록되었습니다!\n\n이메일: %s\n언어: %s", email, lang)
	if err := s.alerter.SendAdminAlert(ctx, subject, body); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Failed to send new subscriber alert")
	}
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	err := s.store.Unsubscribe(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "email is not subscribed")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to unsubscribe")
		s.respondError(w, r, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	s.logger.Info().Str("email", req.Email).Msg("Unsubscribed")
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// decode reads a JSON body, or form values for the dashboard's HTML forms.
func decode(r *http.Request, v any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return json.NewDecoder(r.Body).Decode(v)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	switch req := v.(type) {
	case *subscribeRequest:
		req.Email = r.PostForm.Get("email")
		req.Language = r.PostForm.Get("language")
	case *unsubscribeRequest:
		req.Email = r.PostForm.Get("email")
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid " + strings.ToLower(verrs[0].Field())
	}
	return "invalid request"
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, r, status, map[string]string{"error": message})
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func renderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
