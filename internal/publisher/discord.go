package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ryosukesatoh/daily-brief/internal/retry"
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

const (
	alertColor          = 0xED4245
	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
)

// DiscordAlerter posts admin alerts to a Discord channel via webhook.
type DiscordAlerter struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
	now         func() time.Time
}

var _ Alerter = (*DiscordAlerter)(nil)

func NewDiscordAlerter(webhookURL string) *DiscordAlerter {
	return &DiscordAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.Config{
			MaxRetries: 3,
			BaseDelay:  1 * time.Second,
		},
		now: time.Now,
	}
}

// SendAdminAlert posts the alert as one or more embeds. Long bodies are
// split on line boundaries.
func (d *DiscordAlerter) SendAdminAlert(ctx context.Context, subject, body string) error {
	embeds := d.buildEmbeds(subject, body)
	batches := batchEmbeds(embeds)

	for i, batch := range batches {
		err := retry.WithBackoff(ctx, d.retryConfig, func(ctx context.Context) error {
			return d.sendWebhook(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("discord: failed to send batch %d: %w", i+1, err)
		}

		// Delay between batches to avoid rate limits.
		if i < len(batches)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}
	return nil
}

func (d *DiscordAlerter) buildEmbeds(subject, body string) []discordEmbed {
	chunks := splitLines(body, maxEmbedDescription)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	now := d.now()
	embeds := make([]discordEmbed, 0, len(chunks))
	for i, chunk := range chunks {
		title := subject
		if len(chunks) > 1 {
			title = fmt.Sprintf("%s (%d/%d)", subject, i+1, len(chunks))
		}
		embeds = append(embeds, discordEmbed{
			Title:       truncate(title, maxEmbedTitle),
			Description: chunk,
			Color:       alertColor,
			Footer:      &discordEmbedFooter{Text: "daily-brief"},
			Timestamp:   now.Format(time.RFC3339),
		})
	}
	return embeds
}

// batchEmbeds splits embeds into batches respecting Discord limits:
// max 10 embeds per message, max 6000 total characters per message.
func batchEmbeds(embeds []discordEmbed) [][]discordEmbed {
	var batches [][]discordEmbed
	var current []discordEmbed
	currentChars := 0

	for _, e := range embeds {
		ec := embedCharCount(e)

		if len(current) > 0 && (len(current) >= 10 || currentChars+ec > 6000) {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}

		current = append(current, e)
		currentChars += ec
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// sendWebhook posts a batch of embeds to the Discord webhook.
func (d *DiscordAlerter) sendWebhook(ctx context.Context, embeds []discordEmbed) error {
	payload := discordWebhookPayload{Embeds: embeds}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// truncate shortens s to max characters, preferring a sentence boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	end := max - len("…")
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	// Try to cut at a sentence boundary.
	if idx := strings.LastIndexAny(cut, ".!?"); idx > max/2 {
		return cut[:idx+1]
	}
	return cut + "…"
}

// splitLines breaks s into chunks of at most max bytes, cutting between
// lines. A single line longer than max is truncated.
func splitLines(s string, max int) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if len(line) > max {
			line = truncate(line, max)
		}
		if current.Len() > 0 && current.Len()+1+len(line) > max {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// embedCharCount returns the total character count of an embed for batching purposes.
func embedCharCount(e discordEmbed) int {
	n := len(e.Title) + len(e.Description)
	if e.Footer != nil {
		n += len(e.Footer.Text)
	}
	return n
}
