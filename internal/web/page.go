package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/ryosukesatoh/daily-brief/internal/report"
	"github.com/ryosukesatoh/daily-brief/internal/store"
)

type pageData struct {
	Lang     report.Language
	Title    string
	Brief    template.HTML
	DeepDive template.HTML
	Rate     *report.ExchangeRate
	Reports  []reportView
}

type reportView struct {
	Title   string
	Link    string
	Summary template.HTML
	Date    string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}"><head><meta charset="utf-8"><title>QuantLab Daily Brief</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 860px; margin: 0 auto; padding: 20px; color: #333; line-height: 1.5; }
nav a { margin-right: 12px; }
.rate { color: #555; }
.report { border-top: 1px solid #ddd; padding: 8px 0; }
</style></head><body>
<h1>QuantLab Daily Brief</h1>
<nav><a href="/?lang=ko">한국어</a><a href="/?lang=en">English</a></nav>
{{with .Rate}}<p class="rate">USD/KRW {{printf "%.2f" .USDKRW}} ({{.Date}})</p>{{end}}
{{if .Title}}<h2>{{.Title}}</h2>
{{if .Brief}}{{.Brief}}
{{if .DeepDive}}<details><summary>🔍 심층 마켓 분석 (Deep Dive Analysis) 전체 보기</summary>{{.DeepDive}}</details>{{end}}
{{else}}<p>{{if eq .Lang "ko"}}오늘의 한국어 브리핑이 없습니다.{{else}}No English brief for today.{{end}}</p>{{end}}
{{else}}<p>{{if eq .Lang "ko"}}아직 발행된 브리핑이 없습니다.{{else}}No brief available yet. Check back later.{{end}}</p>{{end}}
{{if .Reports}}<h2>{{if eq .Lang "ko"}}최근 리포트{{else}}Recent Reports{{end}}</h2>
{{range .Reports}}<div class="report"><h3><a href="{{.Link}}">{{.Title}}</a></h3><small>{{.Date}}</small>{{.Summary}}</div>
{{end}}{{end}}
<h2>Subscribe</h2>
<form method="post" action="/api/subscribe">
<input type="email" name="email" required placeholder="you@example.com">
<select name="language"><option value="ko">한국어</option><option value="en">English</option></select>
<button type="submit">Subscribe</button>
</form>
<form method="post" action="/api/unsubscribe">
<input type="email" name="email" required placeholder="you@example.com">
<button type="submit">Unsubscribe</button>
</form>
</body></html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lang := report.Language(r.URL.Query().Get("lang"))
	if !lang.Valid() {
		lang = report.Korean
	}
	data := pageData{Lang: lang}

	daily, err := s.store.LatestDailyReport(ctx)
	switch {
	case err == nil:
		data.Title = daily.Title
		text := daily.SummaryEN
		if lang == report.Korean {
			text = daily.SummaryKO
		}
		head, deepDive := splitBrief(text, lang)
		if data.Brief, err = renderMarkdown(head); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to render daily brief")
		}
		if deepDive != "" {
			if data.DeepDive, err = renderMarkdown(deepDive); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to render deep dive")
			}
		}
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error().Err(err).Msg("Failed to load latest daily report")
	}

	if rate, err := s.store.LatestExchangeRate(ctx); err == nil {
		data.Rate = rate
	}

	reports, err := s.store.ListIndividualReports(ctx, defaultLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list individual reports")
	}
	for _, ir := range reports {
		summary := ir.SummaryEN
		if lang == report.Korean {
			summary = ir.SummaryKO
		}
		html, err := renderMarkdown(summary)
		if err != nil {
			continue
		}
		data.Reports = append(data.Reports, reportView{
			Title:   ir.Title,
			Link:    ir.Link,
			Summary: html,
			Date:    ir.CreatedAt.Format("2006-01-02"),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render dashboard")
	}
}

var deepDiveHeadings = map[report.Language]string{
	report.Korean:  "## 🔍 심층 마켓 분석",
	report.English: "## 🔍 Deep Dive Analysis",
}

// splitBrief separates the headline section of a brief from its deep dive,
// which starts at the language's deep-dive heading or else at the first "---".
func splitBrief(text string, lang report.Language) (head, deepDive string) {
	if heading, ok := deepDiveHeadings[lang]; ok {
		if i := strings.Index(text, heading); i >= 0 {
			return strings.TrimSpace(text[:i]), text[i:]
		}
	}
	if before, after, ok := strings.Cut(text, "---"); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return text, ""
}
