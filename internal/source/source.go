package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/report"
)

// Source finds candidate report documents.
type Source interface {
	Search(ctx context.Context, keyword string, sites []string) ([]report.Document, error)
}

// GoogleSource searches for recent PDF reports through the Google Custom
// Search JSON API.
type GoogleSource struct {
	apiKey       string
	engineID     string
	endpoint     string
	maxResults   int
	dateRestrict string
	client       *http.Client
	logger       arbor.ILogger
}

var _ Source = (*GoogleSource)(nil)

func NewGoogleSource(cfg config.SearchConfig, logger arbor.ILogger) *GoogleSource {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		logger.Warn().Msg("Google Search API key or search engine ID is missing")
	}
	return &GoogleSource{
		apiKey:       cfg.APIKey,
		engineID:     cfg.EngineID,
		endpoint:     cfg.Endpoint,
		maxResults:   cfg.MaxResults,
		dateRestrict: cfg.DateRestrict,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

type searchResponse struct {
	Items []searchItem `json:"items"`
	Error *searchError `json:"error,omitempty"`
}

type searchItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type searchError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// BuildQuery restricts keyword to PDF files hosted on any of sites.
func BuildQuery(keyword string, sites []string) string {
	if len(sites) == 0 {
		return keyword + " filetype:pdf"
	}
	parts := make([]string, len(sites))
	for i, site := range sites {
		parts[i] = "site:" + site
	}
	return fmt.Sprintf("%s filetype:pdf (%s)", keyword, strings.Join(parts, " OR "))
}

// Search returns up to maxResults documents in ranking order. Missing
// credentials yield no documents rather than an error.
func (s *GoogleSource) Search(ctx context.Context, keyword string, sites []string) ([]report.Document, error) {
	if s.apiKey == "" || s.engineID == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("key", s.apiKey)
	query.Set("cx", s.engineID)
	query.Set("q", BuildQuery(keyword, sites))
	query.Set("num", strconv.Itoa(s.maxResults))
	if s.dateRestrict != "" {
		query.Set("dateRestrict", s.dateRestrict)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("source: failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: failed to read response: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("source: failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if sr.Error != nil {
		return nil, fmt.Errorf("source: API error: status %d: %s", sr.Error.Code, sr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: unexpected status %d", resp.StatusCode)
	}

	docs := make([]report.Document, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.Link == "" {
			continue
		}
		docs = append(docs, report.Document{
			Title: strings.TrimSpace(item.Title),
			Link:  item.Link,
		})
	}

	s.logger.Info().
		Str("keyword", keyword).
		Int("count", len(docs)).
		Msg("Found reports")

	return docs, nil
}
