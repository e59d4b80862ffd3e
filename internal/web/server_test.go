package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/report"
	"github.com/ryosukesatoh/daily-brief/internal/store"
)

type fakeStore struct {
	daily       *report.Daily
	individuals []report.Individual
	rate        *report.ExchangeRate
	subscribers map[string]report.Language
	listLimit   int
	err         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{subscribers: map[string]report.Language{}}
}

func (f *fakeStore) Subscribe(_ context.Context, email string, lang report.Language) error {
	if f.err != nil {
		return f.err
	}
	f.subscribers[email] = lang
	return nil
}

func (f *fakeStore) Unsubscribe(_ context.Context, email string) error {
	if _, ok := f.subscribers[email]; !ok {
		return store.ErrNotFound
	}
	delete(f.subscribers, email)
	return nil
}

func (f *fakeStore) LatestDailyReport(context.Context) (*report.Daily, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.daily == nil {
		return nil, store.ErrNotFound
	}
	return f.daily, nil
}

func (f *fakeStore) ListIndividualReports(_ context.Context, limit int) ([]report.Individual, error) {
	f.listLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.individuals, nil
}

func (f *fakeStore) LatestExchangeRate(context.Context) (*report.ExchangeRate, error) {
	if f.rate == nil {
		return nil, store.ErrNotFound
	}
	return f.rate, nil
}

type fakeAlerter struct {
	subjects []string
	bodies   []string
	err      error
}

func (a *fakeAlerter) SendAdminAlert(_ context.Context, subject, body string) error {
	a.subjects = append(a.subjects, subject)
	a.bodies = append(a.bodies, body)
	return a.err
}

func serve(t *testing.T, st Store, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	return serveWith(t, NewServer(":0", st, nil, arbor.NewLogger()), method, target, contentType, body)
}

func serveWith(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(t, newFakeStore(), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexRendersLatestBrief(t *testing.T) {
	st := newFakeStore()
	st.daily = &report.Daily{
		Title:     "Global Market Synthesis (2026-10-16)",
		SummaryKO: "## 핵심 요약\n**금리** 인하 기대",
		SummaryEN: "## Key Points\n**Rates** expected to fall",
	}
	st.individuals = []report.Individual{{
		Title:     "2026 Infrastructure Outlook",
		Link:      "https://kkr.com/outlook.pdf",
		SummaryEN: "Data centers lead.",
		SummaryKO: "데이터센터 주도",
		CreatedAt: time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC),
	}}
	st.rate = &report.ExchangeRate{Date: "2026-10-16", USDKRW: 1385.5}

	rec := serve(t, st, http.MethodGet, "/?lang=en", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Global Market Synthesis (2026-10-16)")
	assert.Contains(t, body, "<h2>Key Points</h2>")
	assert.Contains(t, body, "<strong>Rates</strong>")
	assert.Contains(t, body, "Data centers lead.")
	assert.Contains(t, body, "USD/KRW 1385.50 (2026-10-16)")
	assert.NotContains(t, body, "핵심 요약")

	rec = serve(t, st, http.MethodGet, "/", "", "")
	assert.Contains(t, rec.Body.String(), "<h2>핵심 요약</h2>")
}

func TestIndexFoldsDeepDive(t *testing.T) {
	st := newFakeStore()
	st.daily = &report.Daily{
		SummaryKO: "## 핵심 요약\n금리 인하 기대\n\n## 🔍 심층 마켓 분석\n반도체 사이클 회복",
		SummaryEN: "## Key Points\nRates expected to fall\n\n---\n\n## Sector Notes\nChip cycle recovers",
	}

	body := serve(t, st, http.MethodGet, "/", "", "").Body.String()
	require.Contains(t, body, "<details>")
	assert.Less(t, strings.Index(body, "<h2>핵심 요약</h2>"), strings.Index(body, "<details>"))
	assert.Greater(t, strings.Index(body, "반도체 사이클 회복"), strings.Index(body, "<details>"))

	body = serve(t, st, http.MethodGet, "/?lang=en", "", "").Body.String()
	require.Contains(t, body, "<details>")
	assert.Greater(t, strings.Index(body, "<h2>Sector Notes</h2>"), strings.Index(body, "<details>"))
	assert.NotContains(t, body, "<hr>")
}

func TestSplitBrief(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		lang         report.Language
		wantHead     string
		wantDeepDive string
	}{
		{
			name:         "korean heading",
			text:         "요약\n\n## 🔍 심층 마켓 분석\n본문",
			lang:         report.Korean,
			wantHead:     "요약",
			wantDeepDive: "## 🔍 심층 마켓 분석\n본문",
		},
		{
			name:         "english heading wins over rule",
			text:         "Summary\n---\nTable\n## 🔍 Deep Dive Analysis\nBody",
			lang:         report.English,
			wantHead:     "Summary\n---\nTable",
			wantDeepDive: "## 🔍 Deep Dive Analysis\nBody",
		},
		{
			name:         "other language heading falls back to rule",
			text:         "Summary\n\n---\n\n## 🔍 심층 마켓 분석\nBody",
			lang:         report.English,
			wantHead:     "Summary",
			wantDeepDive: "## 🔍 심층 마켓 분석\nBody",
		},
		{
			name:     "no split point",
			text:     "Summary only",
			lang:     report.English,
			wantHead: "Summary only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head, deepDive := splitBrief(tt.text, tt.lang)
			assert.Equal(t, tt.wantHead, head)
			assert.Equal(t, tt.wantDeepDive, deepDive)
		})
	}
}

func TestIndexWithoutReports(t *testing.T) {
	rec := serve(t, newFakeStore(), http.MethodGet, "/?lang=en", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No brief available yet")
}

func TestLatestReport(t *testing.T) {
	st := newFakeStore()
	rec := serve(t, st, http.MethodGet, "/api/reports/latest", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	st.daily = &report.Daily{Title: "Global Market Synthesis (2026-10-16)", SummaryEN: "brief"}
	rec = serve(t, st, http.MethodGet, "/api/reports/latest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got report.Daily
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "brief", got.SummaryEN)

	st.err = errors.New("connection refused")
	rec = serve(t, st, http.MethodGet, "/api/reports/latest", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListReportsLimit(t *testing.T) {
	tests := []struct {
		query     string
		status    int
		wantLimit int
	}{
		{"", http.StatusOK, defaultLimit},
		{"?limit=3", http.StatusOK, 3},
		{"?limit=1000", http.StatusOK, maxLimit},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			st := newFakeStore()
			rec := serve(t, st, http.MethodGet, "/api/reports"+tt.query, "", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantLimit, st.listLimit)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `[]`, rec.Body.String())
			}
		})
	}
}

func TestSubscribe(t *testing.T) {
	st := newFakeStore()

	rec := serve(t, st, http.MethodPost, "/api/subscribe", "application/json", `{"email":" Reader@Example.com ","language":"en"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.English, st.subscribers["reader@example.com"])

	form := url.Values{"email": {"kim@example.kr"}, "language": {"ko"}}.Encode()
	rec = serve(t, st, http.MethodPost, "/api/subscribe", "application/x-www-form-urlencoded", form)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.Korean, st.subscribers["kim@example.kr"])
}

func TestSubscribeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad email", `{"email":"not-an-email","language":"en"}`, "invalid email"},
		{"bad language", `{"email":"a@example.com","language":"jp"}`, "invalid language"},
		{"malformed", `{"email":`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			rec := serve(t, st, http.MethodPost, "/api/subscribe", "application/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, st.subscribers)
		})
	}
}

func TestSubscribeAlertsAdmin(t *testing.T) {
	st := newFakeStore()
	alerter := &fakeAlerter{}
	s := NewServer(":0", st, alerter, arbor.NewLogger())

	rec := serveWith(t, s, http.MethodPost, "/api/subscribe", "application/json", `{"email":"reader@example.com","language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, alerter.subjects, 1)
	assert.Equal(t, "🔔 신규 구독자: reader@example.com", alerter.subjects[0])
	assert.Contains(t, alerter.bodies[0], "이메일: reader@example.com")

	rec = serveWith(t, s, http.MethodPost, "/api/subscribe", "application/json", `{"email":"not-an-email","language":"en"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, alerter.subjects, 1)

	st.err = errors.New("connection refused")
	rec = serveWith(t, s, http.MethodPost, "/api/subscribe", "application/json", `{"email":"kim@example.kr","language":"ko"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, alerter.subjects, 1)
}

func TestSubscribeSucceedsWhenAlertFails(t *testing.T) {
	st := newFakeStore()
	alerter := &fakeAlerter{err: errors.New("webhook returned 500")}
	s := NewServer(":0", st, alerter, arbor.NewLogger())

	rec := serveWith(t, s, http.MethodPost, "/api/subscribe", "application/json", `{"email":"reader@example.com","language":"ko"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, alerter.subjects, 1)
	assert.Equal(t, report.Korean, st.subscribers["reader@example.com"])
}

func TestUnsubscribe(t *testing.T) {
	st := newFakeStore()
	st.subscribers["reader@example.com"] = report.English

	rec := serve(t, st, http.MethodPost, "/api/unsubscribe", "application/json", `{"email":"unknown@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, st, http.MethodPost, "/api/unsubscribe", "application/json", `{"email":"reader@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, st.subscribers)
}

func TestLatestRate(t *testing.T) {
	st := newFakeStore()
	rec := serve(t, st, http.MethodGet, "/api/rates/latest", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	st.rate = &report.ExchangeRate{Date: "2026-10-16", USDKRW: 1385.5}
	rec = serve(t, st, http.MethodGet, "/api/rates/latest", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2026-10-16","usd_krw":1385.5}`, rec.Body.String())
}
