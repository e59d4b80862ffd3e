package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// Extractor turns a document link into plain text.
type Extractor interface {
	Extract(ctx context.Context, link string) (string, error)
}

var (
	// ErrInsufficientText is returned when the document yields too little
	// text to be worth summarizing.
	ErrInsufficientText = errors.New("extractor: extracted text below minimum length")
	// ErrUnsupportedContent is returned for payloads that are neither PDF nor HTML.
	ErrUnsupportedContent = errors.New("extractor: unsupported content type")
)

// maxDownloadBytes bounds the size of a single document download.
const maxDownloadBytes = 64 << 20

// HTTPExtractor downloads documents and extracts their text. PDFs are read
// with pdfcpu; HTML pages are converted to Markdown.
type HTTPExtractor struct {
	client        *http.Client
	userAgent     string
	minTextLength int
	maxPages      int
	logger        arbor.ILogger
}

var _ Extractor = (*HTTPExtractor)(nil)

// New builds an extractor whose downloads time out after cfg.Timeout.
func New(cfg config.ExtractorConfig, logger arbor.ILogger) *HTTPExtractor {
	return &HTTPExtractor{
		client:        &http.Client{Timeout: cfg.Timeout},
		userAgent:     cfg.UserAgent,
		minTextLength: cfg.MinTextLength,
		maxPages:      cfg.MaxPages,
		logger:        logger,
	}
}

// Extract downloads link and returns its text. The download is not retried.
func (e *HTTPExtractor) Extract(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("extractor: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extractor: download %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extractor: download %s: unexpected status %d", link, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", fmt.Errorf("extractor: read %s: %w", link, err)
	}

	var text string
	switch kind(resp.Header.Get("Content-Type"), body) {
	case kindPDF:
		text, err = e.pdfText(body)
	case kindHTML:
		text, err = htmlText(body, baseDomain(link))
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedContent, resp.Header.Get("Content-Type"))
	}
	if err != nil {
		return "", err
	}

	text = normalizeSpace(text)
	if n := utf8.RuneCountInString(text); n <= e.minTextLength {
		e.logger.Debug().Str("link", link).Int("length", n).Msg("Extracted text too short")
		return "", ErrInsufficientText
	}

	e.logger.Debug().
		Str("link", link).
		Int("length", len(text)).
		Msg("Extracted document text")

	return text, nil
}

type contentKind int

const (
	kindUnknown contentKind = iota
	kindPDF
	kindHTML
)

func kind(contentType string, body []byte) contentKind {
	ct := strings.ToLower(contentType)
	switch {
	case bytes.HasPrefix(body, []byte("%PDF")), strings.Contains(ct, "pdf"):
		return kindPDF
	case strings.Contains(ct, "html"):
		return kindHTML
	}
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return kindHTML
	}
	return kindUnknown
}

func baseDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}

// normalizeSpace collapses runs of blank lines and trailing spaces.
func normalizeSpace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
