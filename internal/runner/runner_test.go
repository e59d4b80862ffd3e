package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/report"
)

// Mock implementations

type mockSource struct{ mock.Mock }

func (m *mockSource) Search(ctx context.Context, keyword string, sites []string) ([]report.Document, error) {
	args := m.Called(ctx, keyword, sites)
	docs, _ := args.Get(0).([]report.Document)
	return docs, args.Error(1)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) Extract(ctx context.Context, link string) (string, error) {
	args := m.Called(ctx, link)
	return args.String(0), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) SaveIndividualReport(ctx context.Context, r report.Individual) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) SaveDailyReport(ctx context.Context, d report.Daily) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockStore) Subscribers(ctx context.Context, lang report.Language) ([]string, error) {
	args := m.Called(ctx, lang)
	emails, _ := args.Get(0).([]string)
	return emails, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendBatch(ctx context.Context, subject, body string, recipients []string) error {
	return m.Called(ctx, subject, body, recipients).Error(0)
}

func (m *mockNotifier) SendAdminAlert(ctx context.Context, subject, body string) error {
	return m.Called(ctx, subject, body).Error(0)
}

// fakeSummarizer answers prompts through respond, keyed by prompt kind and
// language.
type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	respond func(kind string, lang report.Language, prompt string) string
}

func (f *fakeSummarizer) Summarize(_ context.Context, prompt string) string {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	kind, lang := classify(prompt)
	return f.respond(kind, lang, prompt)
}

func classify(prompt string) (string, report.Language) {
	lang := report.English
	if strings.HasPrefix(prompt, "역할") {
		lang = report.Korean
	}
	kind := "summary"
	if strings.Contains(prompt, "[Report Summaries]") || strings.Contains(prompt, "[리포트 요약]") {
		kind = "synthesis"
	}
	return kind, lang
}

// echoSummarizer succeeds for every prompt.
func echoSummarizer() *fakeSummarizer {
	return &fakeSummarizer{respond: func(kind string, lang report.Language, prompt string) string {
		return kind + "-" + string(lang)
	}}
}

type fixture struct {
	source     *mockSource
	extractor  *mockExtractor
	summarizer *fakeSummarizer
	store      *mockStore
	notifier   *mockNotifier
	runner     *Runner
}

var seoul, _ = time.LoadLocation("Asia/Seoul")

// fixedNow is 07:00 on 2026-10-16 in Seoul.
var fixedNow = time.Date(2026, 10, 15, 22, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, sum *fakeSummarizer, concurrency int) *fixture {
	t.Helper()
	f := &fixture{
		source:     &mockSource{},
		extractor:  &mockExtractor{},
		summarizer: sum,
		store:      &mockStore{},
		notifier:   &mockNotifier{},
	}
	f.runner = New(Deps{
		Source:     f.source,
		Extractor:  f.extractor,
		Summarizer: f.summarizer,
		Store:      f.store,
		Notifier:   f.notifier,
		Logger:     arbor.NewLogger(),
	}, Options{
		Keyword:             "Infrastructure Outlook",
		Sites:               []string{"kkr.com", "imf.org"},
		DocumentConcurrency: concurrency,
		Location:            seoul,
	})
	f.runner.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.source.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func docs(titles ...string) []report.Document {
	out := make([]report.Document, 0, len(titles))
	for _, title := range titles {
		out = append(out, report.Document{Title: title, Link: "https://example.com/" + title + ".pdf"})
	}
	return out
}

func TestRunNoResults(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.source.On("Search", mock.Anything, "Infrastructure Outlook", []string{"kkr.com", "imf.org"}).Return(nil, nil)

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Zero(t, rep.Candidates)
	assert.Zero(t, rep.AlertsSent)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "2026-10-16", rep.Date)
	assert.Zero(t, f.summarizer.calls)

	f.assertExpectations(t)
	f.store.AssertNotCalled(t, "SaveIndividualReport", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "SaveDailyReport", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSearchErrorAlertsAndStops(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
	f.notifier.On("SendAdminAlert", mock.Anything, "[QuantLab Error] Report Search Failed (2026-10-16)", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "quota exceeded")
	})).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, 1, rep.AlertsSent)

	f.assertExpectations(t)
	f.store.AssertNotCalled(t, "SaveDailyReport", mock.Anything, mock.Anything)
}

func TestRunExtractionFails(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a"), nil)
	f.extractor.On("Extract", mock.Anything, "https://example.com/a.pdf").Return("", errors.New("unexpected status 404"))
	f.notifier.On("SendAdminAlert", mock.Anything, "[QuantLab Warning] 1 Reports Failed to Process", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "❌ a") &&
			strings.Contains(body, "🔗 https://example.com/a.pdf") &&
			strings.Contains(body, report.ReasonNoText)
	})).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Empty(t, rep.Processed)
	require.Len(t, rep.Failed, 1)
	assert.Equal(t, report.Failed{Title: "a", Link: "https://example.com/a.pdf", Reason: report.ReasonNoText}, rep.Failed[0])
	assert.Nil(t, rep.Synthesis)
	assert.Zero(t, f.summarizer.calls)

	f.assertExpectations(t)
	f.store.AssertNotCalled(t, "SaveIndividualReport", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "SaveDailyReport", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunTwoDocumentsFullSuccess(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a", "b"), nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return("report text", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.MatchedBy(func(r report.Individual) bool {
		return r.SummaryKO == "summary-ko" && r.SummaryEN == "summary-en"
	})).Return(nil).Twice()

	var daily report.Daily
	f.store.On("SaveDailyReport", mock.Anything, mock.Anything).Return(nil).Once().Run(func(args mock.Arguments) {
		daily = args.Get(1).(report.Daily)
	})
	f.store.On("Subscribers", mock.Anything, report.Korean).Return([]string{"ko1@example.com", "ko2@example.com"}, nil)
	f.store.On("Subscribers", mock.Anything, report.English).Return([]string{"en@example.com"}, nil)

	f.notifier.On("SendBatch", mock.Anything, "[QuantLab] 오늘의 글로벌 마켓 브리핑 (10/16)", mock.MatchedBy(func(body string) bool {
		return strings.HasPrefix(body, "synthesis-ko") && strings.Contains(body, "📚 [참고한 개별 리포트 원문 요약]")
	}), []string{"ko1@example.com", "ko2@example.com"}).Return(nil).Once()
	f.notifier.On("SendBatch", mock.Anything, "[QuantLab] Daily Market Brief (10/16)", mock.MatchedBy(func(body string) bool {
		return strings.HasPrefix(body, "synthesis-en") && strings.Contains(body, "📚 [Individual Report Summaries]")
	}), []string{"en@example.com"}).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, 2, rep.Candidates)
	require.Len(t, rep.Processed, 2)
	assert.Equal(t, "a", rep.Processed[0].Title)
	assert.Equal(t, "b", rep.Processed[1].Title)
	assert.Empty(t, rep.Failed)
	assert.Equal(t, 2, rep.EmailsSent)
	assert.Zero(t, rep.AlertsSent)

	assert.Equal(t, "Global Market Synthesis (2026-10-16)", daily.Title)
	assert.Equal(t, "synthesis-ko", daily.SummaryKO)
	assert.Equal(t, "synthesis-en", daily.SummaryEN)

	f.assertExpectations(t)
	f.notifier.AssertNotCalled(t, "SendAdminAlert", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPartialSynthesisFailure(t *testing.T) {
	sum := &fakeSummarizer{respond: func(kind string, lang report.Language, _ string) string {
		if kind == "synthesis" && lang == report.Korean {
			return ""
		}
		return kind + "-" + string(lang)
	}}
	f := newFixture(t, sum, 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a"), nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return("report text", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.Anything).Return(nil).Once()
	f.store.On("SaveDailyReport", mock.Anything, report.Daily{
		Title:     "Global Market Synthesis (2026-10-16)",
		SummaryKO: "",
		SummaryEN: "synthesis-en",
	}).Return(nil).Once()
	f.store.On("Subscribers", mock.Anything, report.English).Return([]string{"en@example.com"}, nil).Once()
	f.notifier.On("SendBatch", mock.Anything, "[QuantLab] Daily Market Brief (10/16)", mock.Anything, []string{"en@example.com"}).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	require.NotNil(t, rep.Synthesis)
	assert.Equal(t, "", rep.Synthesis.SummaryKO)
	assert.Equal(t, 1, rep.EmailsSent)

	f.assertExpectations(t)
	f.store.AssertNotCalled(t, "Subscribers", mock.Anything, report.Korean)
	f.notifier.AssertNotCalled(t, "SendAdminAlert", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSynthesisFailsInBothLanguages(t *testing.T) {
	sum := &fakeSummarizer{respond: func(kind string, lang report.Language, _ string) string {
		if kind == "synthesis" {
			return ""
		}
		return kind + "-" + string(lang)
	}}
	f := newFixture(t, sum, 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a"), nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return("report text", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("SendAdminAlert", mock.Anything, "[QuantLab Error] Synthesis Failed (2026-10-16)", "Both KO and EN synthesis failed.").Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Equal(t, StateFailed, rep.State)
	assert.Nil(t, rep.Synthesis)
	assert.Equal(t, 1, rep.AlertsSent)

	f.assertExpectations(t)
	f.store.AssertNotCalled(t, "SaveDailyReport", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "Subscribers", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunAggregatesFailuresIntoOneAlert(t *testing.T) {
	sum := &fakeSummarizer{respond: func(kind string, lang report.Language, prompt string) string {
		// The Korean summary of "text-b" fails; everything else succeeds.
		if kind == "summary" && lang == report.Korean && strings.Contains(prompt, "text-b") {
			return ""
		}
		return kind + "-" + string(lang)
	}}
	f := newFixture(t, sum, 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a", "b", "c"), nil)
	f.extractor.On("Extract", mock.Anything, "https://example.com/a.pdf").Return("", nil)
	f.extractor.On("Extract", mock.Anything, "https://example.com/b.pdf").Return("text-b", nil)
	f.extractor.On("Extract", mock.Anything, "https://example.com/c.pdf").Return("text-c", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.MatchedBy(func(r report.Individual) bool {
		return r.Title == "c"
	})).Return(nil).Once()
	f.store.On("SaveDailyReport", mock.Anything, mock.Anything).Return(nil).Once()
	f.store.On("Subscribers", mock.Anything, mock.Anything).Return(nil, nil)
	f.notifier.On("SendAdminAlert", mock.Anything, "[QuantLab Warning] 2 Reports Failed to Process", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "❌ a") && strings.Contains(body, "❌ b") && !strings.Contains(body, "❌ c")
	})).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Processed, 1)
	assert.Equal(t, "c", rep.Processed[0].Title)
	assert.Equal(t, []report.Failed{
		{Title: "a", Link: "https://example.com/a.pdf", Reason: report.ReasonNoText},
		{Title: "b", Link: "https://example.com/b.pdf", Reason: report.ReasonSummaryFailed},
	}, rep.Failed)
	assert.Equal(t, 1, rep.AlertsSent)
	assert.Zero(t, rep.EmailsSent)

	f.assertExpectations(t)
	f.notifier.AssertNumberOfCalls(t, "SendAdminAlert", 1)
}

func TestRunPersistenceFailuresDoNotStopDistribution(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a"), nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return("report text", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	f.store.On("SaveDailyReport", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	f.store.On("Subscribers", mock.Anything, report.Korean).Return(nil, errors.New("connection refused"))
	f.store.On("Subscribers", mock.Anything, report.English).Return([]string{"en@example.com"}, nil)
	f.notifier.On("SendBatch", mock.Anything, mock.Anything, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "📌 a\n🔗 https://example.com/a.pdf\nsummary-en\n")
	}), []string{"en@example.com"}).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Len(t, rep.Processed, 1)
	assert.Equal(t, 1, rep.EmailsSent)

	f.assertExpectations(t)
}

func TestRunSendFailureDoesNotStopOtherLanguage(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a"), nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return("report text", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.Anything).Return(nil)
	f.store.On("SaveDailyReport", mock.Anything, mock.Anything).Return(nil)
	f.store.On("Subscribers", mock.Anything, report.Korean).Return([]string{"ko@example.com"}, nil)
	f.store.On("Subscribers", mock.Anything, report.English).Return([]string{"en@example.com"}, nil)
	f.notifier.On("SendBatch", mock.Anything, mock.Anything, mock.Anything, []string{"ko@example.com"}).Return(errors.New("smtp: 535 auth failed")).Once()
	f.notifier.On("SendBatch", mock.Anything, mock.Anything, mock.Anything, []string{"en@example.com"}).Return(nil).Once()

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.EmailsSent)
	f.assertExpectations(t)
}

func TestProcessDocumentIdempotent(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.extractor.On("Extract", mock.Anything, "https://example.com/a.pdf").Return("report text", nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.Anything).Return(nil)

	doc := docs("a")[0]
	first, reason := f.runner.ProcessDocument(context.Background(), doc)
	require.NotNil(t, first)
	assert.Empty(t, reason)

	second, _ := f.runner.ProcessDocument(context.Background(), doc)
	assert.Equal(t, first, second)
	assert.Equal(t, &report.Processed{
		Title:     "a",
		Link:      "https://example.com/a.pdf",
		SummaryKO: "summary-ko",
		SummaryEN: "summary-en",
	}, first)
}

func TestProcessDocumentWhitespaceTextFails(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(" \n\t", nil)

	p, reason := f.runner.ProcessDocument(context.Background(), docs("a")[0])
	assert.Nil(t, p)
	assert.Equal(t, report.ReasonNoText, reason)
	assert.Zero(t, f.summarizer.calls)
}

// concurrencyExtractor records the peak number of concurrent Extract calls.
type concurrencyExtractor struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	delays   map[string]time.Duration
}

func (e *concurrencyExtractor) Extract(ctx context.Context, link string) (string, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(e.delays[link])
	return "text for " + link, nil
}

func runWithConcurrency(t *testing.T, concurrency int) (*RunReport, *concurrencyExtractor) {
	t.Helper()
	f := newFixture(t, echoSummarizer(), concurrency)
	ext := &concurrencyExtractor{delays: map[string]time.Duration{
		"https://example.com/a.pdf": 40 * time.Millisecond,
		"https://example.com/b.pdf": 5 * time.Millisecond,
		"https://example.com/c.pdf": 20 * time.Millisecond,
		"https://example.com/d.pdf": 1 * time.Millisecond,
	}}
	f.runner.extractor = ext

	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a", "b", "c", "d"), nil)
	f.store.On("SaveIndividualReport", mock.Anything, mock.Anything).Return(nil)
	f.store.On("SaveDailyReport", mock.Anything, mock.Anything).Return(nil)
	f.store.On("Subscribers", mock.Anything, mock.Anything).Return(nil, nil)

	rep, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	return rep, ext
}

func TestRunSequentialByDefault(t *testing.T) {
	rep, ext := runWithConcurrency(t, 1)
	assert.EqualValues(t, 1, ext.peak.Load())
	require.Len(t, rep.Processed, 4)
}

func TestRunConcurrentPreservesOrder(t *testing.T) {
	rep, ext := runWithConcurrency(t, 3)
	assert.LessOrEqual(t, ext.peak.Load(), int32(3))
	assert.Greater(t, ext.peak.Load(), int32(1))

	var titles []string
	for _, p := range rep.Processed {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, titles)
}

func TestRunCanceledMarksRemainingDocuments(t *testing.T) {
	f := newFixture(t, echoSummarizer(), 1)
	ctx, cancel := context.WithCancel(context.Background())

	f.source.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(docs("a", "b"), nil)
	f.extractor.On("Extract", mock.Anything, "https://example.com/a.pdf").Return("", errors.New("context canceled")).Run(func(mock.Arguments) {
		cancel()
	})
	liveContext := mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	})
	f.notifier.On("SendAdminAlert", liveContext, "[QuantLab Warning] 2 Reports Failed to Process", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, report.ReasonCanceled)
	})).Return(nil).Once()

	rep, err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, rep.AlertsSent)
	f.notifier.AssertExpectations(t)
	assert.Equal(t, StateFailed, rep.State)
	require.Len(t, rep.Failed, 2)
	assert.Equal(t, report.ReasonNoText, rep.Failed[0].Reason)
	assert.Equal(t, report.ReasonCanceled, rep.Failed[1].Reason)
}

func TestMailBody(t *testing.T) {
	processed := []report.Processed{
		{Title: "A", Link: "https://x/a.pdf", SummaryKO: "요약 A", SummaryEN: "Summary A"},
		{Title: "B", Link: "https://x/b.pdf", SummaryKO: "요약 B", SummaryEN: "Summary B"},
	}

	want := "Brief\n\n" + strings.Repeat("=", 40) + "\n\n" +
		"📚 [Individual Report Summaries]\n\n" +
		"📌 A\n🔗 https://x/a.pdf\nSummary A\n" + strings.Repeat("-", 20) + "\n" +
		"📌 B\n🔗 https://x/b.pdf\nSummary B\n" + strings.Repeat("-", 20) + "\n"
	assert.Equal(t, want, MailBody("Brief", processed, report.English))

	ko := MailBody("브리프", processed, report.Korean)
	assert.Contains(t, ko, "📚 [참고한 개별 리포트 원문 요약]")
	assert.Contains(t, ko, "요약 B")
	assert.NotContains(t, ko, "Summary B")
}

func TestSubject(t *testing.T) {
	day := time.Date(2026, 1, 5, 7, 0, 0, 0, seoul)
	assert.Equal(t, "[QuantLab] 오늘의 글로벌 마켓 브리핑 (01/05)", Subject(report.Korean, day))
	assert.Equal(t, "[QuantLab] Daily Market Brief (01/05)", Subject(report.English, day))
}

func TestSynthesisInput(t *testing.T) {
	in := SynthesisInput([]report.Processed{
		{Title: "A", SummaryKO: "ko", SummaryEN: "en A"},
		{Title: "B", SummaryKO: "ko", SummaryEN: "en B"},
	})
	assert.Equal(t, "Title: A\nSummary: en A\n\nTitle: B\nSummary: en B", in)
}
