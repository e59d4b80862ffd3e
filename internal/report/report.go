// Package report holds the records that flow through a daily run.
package report

import "time"

// Language identifies a distribution language.
type Language string

const (
	Korean  Language = "ko"
	English Language = "en"
)

// Languages lists every distribution language in delivery order.
var Languages = []Language{Korean, English}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == Korean || l == English
}

// Document is a candidate report returned by the document source.
type Document struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Processed is a document with both language summaries. It is never
// modified after creation.
type Processed struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	SummaryKO string `json:"summary_ko"`
	SummaryEN string `json:"summary_en"`
}

// Summary returns the summary written in lang.
func (p Processed) Summary(lang Language) string {
	if lang == Korean {
		return p.SummaryKO
	}
	return p.SummaryEN
}

// Failure reasons recorded for documents that did not become Processed.
const (
	ReasonNoText        = "no text extracted"
	ReasonSummaryFailed = "summary generation failed"
	ReasonCanceled      = "run canceled"
)

// Failed is a document that did not yield a Processed report.
type Failed struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// Synthesis is the cross-report brief. An empty side means generation for
// that language failed.
type Synthesis struct {
	Title     string `json:"title"`
	SummaryKO string `json:"summary_ko"`
	SummaryEN string `json:"summary_en"`
}

// Text returns the synthesized brief for lang.
func (s Synthesis) Text(lang Language) string {
	if lang == Korean {
		return s.SummaryKO
	}
	return s.SummaryEN
}

// Empty reports whether both languages failed.
func (s Synthesis) Empty() bool {
	return s.SummaryKO == "" && s.SummaryEN == ""
}

// Individual is the persisted form of a Processed report.
type Individual struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	SummaryKO string    `json:"summary_ko"`
	SummaryEN string    `json:"summary_en"`
	CreatedAt time.Time `json:"created_at"`
}

// Daily is the persisted daily brief. Both summary fields are always
// written, empty when that language failed.
type Daily struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SummaryKO string    `json:"summary_ko"`
	SummaryEN string    `json:"summary_en"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscriber is a newsletter recipient.
type Subscriber struct {
	Email     string    `json:"email"`
	Language  Language  `json:"language"`
	Active    bool      `json:"active"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription actions written to the audit log.
const (
	ActionSubscribe   = "SUBSCRIBE"
	ActionUnsubscribe = "UNSUBSCRIBE"
)

// SubscriptionLog records a subscribe or unsubscribe action.
type SubscriptionLog struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Action    string    `json:"action_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ExchangeRate is the daily base rate of one US dollar in won.
type ExchangeRate struct {
	Date   string  `json:"date"`
	USDKRW float64 `json:"usd_krw"`
}
