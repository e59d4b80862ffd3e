package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ryosukesatoh/daily-brief/internal/extractor"
	"github.com/ryosukesatoh/daily-brief/internal/prompts"
	"github.com/ryosukesatoh/daily-brief/internal/publisher"
	"github.com/ryosukesatoh/daily-brief/internal/report"
	"github.com/ryosukesatoh/daily-brief/internal/source"
)

// ErrSynthesisFailed is returned by Run when the brief could not be
// generated in any language.
var ErrSynthesisFailed = errors.New("runner: synthesis failed in every language")

// Summarizer generates text for a prompt and returns "" on failure.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) string
}

// Store is the subset of persistence the daily run writes to and reads from.
type Store interface {
	SaveIndividualReport(ctx context.Context, r report.Individual) error
	SaveDailyReport(ctx context.Context, d report.Daily) error
	Subscribers(ctx context.Context, lang report.Language) ([]string, error)
}

// Deps are the collaborators of a run.
type Deps struct {
	Source     source.Source
	Extractor  extractor.Extractor
	Summarizer Summarizer
	Store      Store
	Notifier   publisher.Notifier
	Logger     arbor.ILogger
}

// Options tune a run.
type Options struct {
	Keyword string
	Sites   []string
	// DocumentConcurrency bounds how many documents are processed at once.
	// One keeps generation calls sequential across documents.
	DocumentConcurrency int
	// Location is the timezone the run date is computed in.
	Location *time.Location
}

// Runner orchestrates the search -> extract -> summarize -> synthesize ->
// persist -> distribute pipeline.
type Runner struct {
	source      source.Source
	extractor   extractor.Extractor
	summarizer  Summarizer
	store       Store
	notifier    publisher.Notifier
	logger      arbor.ILogger
	keyword     string
	sites       []string
	concurrency int
	location    *time.Location
	now         func() time.Time
}

func New(deps Deps, opts Options) *Runner {
	if opts.DocumentConcurrency < 1 {
		opts.DocumentConcurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Runner{
		source:      deps.Source,
		extractor:   deps.Extractor,
		summarizer:  deps.Summarizer,
		store:       deps.Store,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		keyword:     opts.Keyword,
		sites:       opts.Sites,
		concurrency: opts.DocumentConcurrency,
		location:    opts.Location,
		now:         time.Now,
	}
}

// State is the stage a run is in, or the terminal state it ended in.
type State string

const (
	StateSearching    State = "searching"
	StateProcessing   State = "processing_documents"
	StateSynthesizing State = "synthesizing"
	StatePersisting   State = "persisting"
	StateDistributing State = "distributing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// RunReport summarizes one run.
type RunReport struct {
	RunID      string
	Date       string
	State      State
	Candidates int
	Processed  []report.Processed
	Failed     []report.Failed
	Synthesis  *report.Synthesis
	EmailsSent int
	AlertsSent int
	Duration   time.Duration
}

// Run executes the full pipeline once. Per-document and partial synthesis
// failures are reported to the administrator and do not fail the run; a
// synthesis failure in every language returns ErrSynthesisFailed.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	start := r.now()
	today := start.In(r.location)
	rep := &RunReport{
		RunID: uuid.NewString(),
		Date:  today.Format("2006-01-02"),
		State: StateSearching,
	}
	defer func() { rep.Duration = r.now().Sub(start) }()

	logger := r.logger.WithCorrelationId(rep.RunID)
	logger.Info().
		Str("keyword", r.keyword).
		Int("sites", len(r.sites)).
		Str("date", rep.Date).
		Msg("Daily run started")

	docs, err := r.source.Search(ctx, r.keyword, r.sites)
	if err != nil {
		logger.Error().Err(err).Msg("Report search failed")
		r.alert(ctx, logger, rep,
			fmt.Sprintf("[QuantLab Error] Report Search Failed (%s)", rep.Date),
			fmt.Sprintf("Report search failed, no reports were processed today.\n\n%v", err))
	}
	rep.Candidates = len(docs)
	if len(docs) == 0 {
		logger.Info().Msg("No reports found")
		rep.State = StateDone
		return rep, nil
	}
	logger.Info().Int("candidates", len(docs)).Msg("Reports found")

	rep.State = StateProcessing
	rep.Processed, rep.Failed = r.processAll(ctx, logger, docs)

	if len(rep.Failed) > 0 {
		logger.Warn().Int("failed", len(rep.Failed)).Msg("Some reports failed to process")
		r.alert(ctx, logger, rep,
			fmt.Sprintf("[QuantLab Warning] %d Reports Failed to Process", len(rep.Failed)),
			failureBody(rep.Failed))
	}
	if err := ctx.Err(); err != nil {
		rep.State = StateFailed
		return rep, err
	}
	if len(rep.Processed) == 0 {
		logger.Info().Msg("No reports processed successfully")
		rep.State = StateDone
		return rep, nil
	}

	rep.State = StateSynthesizing
	logger.Info().Int("reports", len(rep.Processed)).Msg("Synthesizing reports")
	syn := r.synthesize(ctx, logger, rep.Processed, rep.Date)
	if syn.Empty() {
		logger.Error().Msg("Synthesis generation failed in both languages")
		r.alert(ctx, logger, rep,
			fmt.Sprintf("[QuantLab Error] Synthesis Failed (%s)", rep.Date),
			"Both KO and EN synthesis failed.")
		rep.State = StateFailed
		return rep, ErrSynthesisFailed
	}
	for _, lang := range report.Languages {
		if syn.Text(lang) == "" {
			logger.Warn().Str("language", string(lang)).Msg("Synthesis generation failed for one language")
		}
	}
	rep.Synthesis = &syn

	rep.State = StatePersisting
	daily := report.Daily{Title: syn.Title, SummaryKO: syn.SummaryKO, SummaryEN: syn.SummaryEN}
	if err := r.store.SaveDailyReport(ctx, daily); err != nil {
		logger.Error().Err(err).Str("title", syn.Title).Msg("Failed to save daily report")
	} else {
		logger.Info().Str("title", syn.Title).Msg("Saved daily report")
	}

	rep.State = StateDistributing
	rep.EmailsSent = r.distribute(ctx, logger, syn, rep.Processed, today)

	rep.State = StateDone
	logger.Info().
		Int("processed", len(rep.Processed)).
		Int("failed", len(rep.Failed)).
		Int("emails", rep.EmailsSent).
		Dur("elapsed", r.now().Sub(start)).
		Msg("Daily run completed")
	return rep, nil
}

// ProcessDocument extracts and summarizes one document. It returns the
// processed report, or nil and the failure reason.
func (r *Runner) ProcessDocument(ctx context.Context, doc report.Document) (*report.Processed, string) {
	return r.processDocument(ctx, r.logger, doc)
}

func (r *Runner) processDocument(ctx context.Context, logger arbor.ILogger, doc report.Document) (*report.Processed, string) {
	logger.Info().Str("title", doc.Title).Str("link", doc.Link).Msg("Processing report")

	text, err := r.extractor.Extract(ctx, doc.Link)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn().Err(err).Str("title", doc.Title).Msg("Skipping report: no text extracted")
		return nil, report.ReasonNoText
	}

	summaries := r.generatePair(ctx, logger, func(lang report.Language) (string, error) {
		return prompts.Summary(lang, text)
	})
	if summaries[report.Korean] == "" || summaries[report.English] == "" {
		logger.Error().Str("title", doc.Title).Msg("Summary generation failed")
		return nil, report.ReasonSummaryFailed
	}

	p := &report.Processed{
		Title:     doc.Title,
		Link:      doc.Link,
		SummaryKO: summaries[report.Korean],
		SummaryEN: summaries[report.English],
	}

	err = r.store.SaveIndividualReport(ctx, report.Individual{
		Title:     p.Title,
		Link:      p.Link,
		SummaryKO: p.SummaryKO,
		SummaryEN: p.SummaryEN,
	})
	if err != nil {
		logger.Error().Err(err).Str("title", p.Title).Msg("Failed to save individual report")
	} else {
		logger.Info().Str("title", p.Title).Msg("Saved individual report")
	}
	return p, ""
}

// processAll runs processDocument over docs with at most r.concurrency in
// flight. Results keep the order of docs.
func (r *Runner) processAll(ctx context.Context, logger arbor.ILogger, docs []report.Document) ([]report.Processed, []report.Failed) {
	results := make([]*report.Processed, len(docs))
	reasons := make([]string, len(docs))

	sem := semaphore.NewWeighted(int64(r.concurrency))
	var wg sync.WaitGroup
	for i, doc := range docs {
		err := sem.Acquire(ctx, 1)
		if err == nil && ctx.Err() != nil {
			sem.Release(1)
			err = ctx.Err()
		}
		if err != nil {
			for j := i; j < len(docs); j++ {
				reasons[j] = report.ReasonCanceled
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i], reasons[i] = r.processDocument(ctx, logger, doc)
		}()
	}
	wg.Wait()

	var (
		processed []report.Processed
		failed    []report.Failed
	)
	for i, doc := range docs {
		if results[i] != nil {
			processed = append(processed, *results[i])
			continue
		}
		failed = append(failed, report.Failed{Title: doc.Title, Link: doc.Link, Reason: reasons[i]})
	}
	return processed, failed
}

// generatePair runs the prompt for every language concurrently and returns
// the generated text per language ("" where generation failed).
func (r *Runner) generatePair(ctx context.Context, logger arbor.ILogger, build func(report.Language) (string, error)) map[report.Language]string {
	texts := make([]string, len(report.Languages))

	var g errgroup.Group
	for i, lang := range report.Languages {
		g.Go(func() error {
			prompt, err := build(lang)
			if err != nil {
				logger.Error().Err(err).Str("language", string(lang)).Msg("Failed to build prompt")
				return nil
			}
			texts[i] = r.summarizer.Summarize(ctx, prompt)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[report.Language]string, len(texts))
	for i, lang := range report.Languages {
		out[lang] = texts[i]
	}
	return out
}

// SynthesisInput joins the English summaries that feed the daily brief.
func SynthesisInput(processed []report.Processed) string {
	parts := make([]string, 0, len(processed))
	for _, p := range processed {
		parts = append(parts, fmt.Sprintf("Title: %s\nSummary: %s", p.Title, p.SummaryEN))
	}
	return strings.Join(parts, "\n\n")
}

func (r *Runner) synthesize(ctx context.Context, logger arbor.ILogger, processed []report.Processed, date string) report.Synthesis {
	input := SynthesisInput(processed)
	texts := r.generatePair(ctx, logger, func(lang report.Language) (string, error) {
		return prompts.Synthesis(lang, input, date)
	})
	return report.Synthesis{
		Title:     fmt.Sprintf("Global Market Synthesis (%s)", date),
		SummaryKO: texts[report.Korean],
		SummaryEN: texts[report.English],
	}
}

// distribute sends one batched email per language that has a brief and
// subscribers. It returns the number of batches sent.
func (r *Runner) distribute(ctx context.Context, logger arbor.ILogger, syn report.Synthesis, processed []report.Processed, today time.Time) int {
	sent := 0
	for _, lang := range report.Languages {
		text := syn.Text(lang)
		if text == "" {
			continue
		}

		recipients, err := r.store.Subscribers(ctx, lang)
		if err != nil {
			logger.Error().Err(err).Str("language", string(lang)).Msg("Failed to fetch subscribers")
			continue
		}
		if len(recipients) == 0 {
			logger.Info().Str("language", string(lang)).Msg("No subscribers, skipping email")
			continue
		}

		subject := Subject(lang, today)
		if err := r.notifier.SendBatch(ctx, subject, MailBody(text, processed, lang), recipients); err != nil {
			logger.Error().Err(err).Str("language", string(lang)).Msg("Failed to send email batch")
			continue
		}
		logger.Info().
			Str("language", string(lang)).
			Int("recipients", len(recipients)).
			Msg("Email batch sent")
		sent++
	}
	return sent
}

// Subject returns the email subject for lang on day.
func Subject(lang report.Language, day time.Time) string {
	md := day.Format("01/02")
	if lang == report.Korean {
		return fmt.Sprintf("[QuantLab] 오늘의 글로벌 마켓 브리핑 (%s)", md)
	}
	return fmt.Sprintf("[QuantLab] Daily Market Brief (%s)", md)
}

// MailBody builds the email for lang: the brief, a divider, then every
// processed report's title, link and summary.
func MailBody(synthesis string, processed []report.Processed, lang report.Language) string {
	var b strings.Builder
	b.WriteString(synthesis)
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n\n")

	if lang == report.Korean {
		b.WriteString("📚 [참고한 개별 리포트 원문 요약]\n\n")
	} else {
		b.WriteString("📚 [Individual Report Summaries]\n\n")
	}

	for _, p := range processed {
		fmt.Fprintf(&b, "📌 %s\n", p.Title)
		fmt.Fprintf(&b, "🔗 %s\n", p.Link)
		b.WriteString(p.Summary(lang))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 20))
		b.WriteString("\n")
	}
	return b.String()
}

func failureBody(failed []report.Failed) string {
	var b strings.Builder
	b.WriteString("The following reports failed to process (skipped):\n\n")
	for _, f := range failed {
		fmt.Fprintf(&b, "❌ %s\n🔗 %s\n⚠️ %s\n\n", f.Title, f.Link, f.Reason)
	}
	return b.String()
}

// alertTimeout bounds an admin alert sent after the run context is done.
const alertTimeout = 30 * time.Second

// alert notifies the administrator. It detaches from ctx so a canceled run
// still reports what it skipped.
func (r *Runner) alert(ctx context.Context, logger arbor.ILogger, rep *RunReport, subject, body string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()

	if err := r.notifier.SendAdminAlert(ctx, subject, body); err != nil {
		logger.Error().Err(err).Str("subject", subject).Msg("Failed to send admin alert")
		return
	}
	rep.AlertsSent++
}
