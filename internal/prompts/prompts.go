// Package prompts holds the model prompts for per-report summaries and the
// daily synthesis, one template per language.
package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ryosukesatoh/daily-brief/internal/report"
)

var summaryTemplates = map[report.Language]*template.Template{
	report.English: template.Must(template.New("summary_en").Parse(summaryEN)),
	report.Korean:  template.Must(template.New("summary_ko").Parse(summaryKO)),
}

var synthesisTemplates = map[report.Language]*template.Template{
	report.English: template.Must(template.New("synthesis_en").Parse(synthesisEN)),
	report.Korean:  template.Must(template.New("synthesis_ko").Parse(synthesisKO)),
}

// Summary builds the prompt that turns one report's text into a summary card
// written in lang.
func Summary(lang report.Language, text string) (string, error) {
	tmpl, ok := summaryTemplates[lang]
	if !ok {
		return "", fmt.Errorf("prompts: unsupported language %q", lang)
	}
	return render(tmpl, map[string]string{"Text": text})
}

// Synthesis builds the prompt for the cross-report daily brief. date is the
// run date as YYYY-MM-DD.
func Synthesis(lang report.Language, summaries, date string) (string, error) {
	tmpl, ok := synthesisTemplates[lang]
	if !ok {
		return "", fmt.Errorf("prompts: unsupported language %q", lang)
	}
	return render(tmpl, map[string]string{"Summaries": summaries, "Date": date})
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("prompts: render %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

const summaryEN = `Role: Senior quant analyst at a multi-strategy fund.
Task: Turn the report below into a structured data card a portfolio manager can act on immediately.

[Report Text]
{{.Text}}

[Rules]
1. Tickers: write companies as tickers (e.g. $TSLA).
2. Brevity: short bullets, lead with numbers (%, $, bp).
3. Source: name the publishing institution (e.g. Morgan Stanley, BlackRock) or the author.
4. Date: state when the report was written or published if the text says so.

[Output Format (Markdown)]
### 📄 Report Analysis
* **🏢 Institution**: (publisher)
* **💡 One-Liner**: (core thesis in one sentence)
* **🌡️ Sentiment**: (score from -5 to +5)
#### 🎯 Key Investment Calls
* **🟢 Long/Overweight**:
  - **$TICKER**: (target price or catalyst)
* **🔴 Short/Underweight**:
  - **$TICKER**: (risk factors)
#### 🔢 Key Numbers
* (critical metric)
* (critical metric)
`

const summaryKO = `역할: 멀티 전략 펀드의 시니어 퀀트 애널리스트.
작업: 아래 리포트를 포트폴리오 매니저가 바로 활용할 수 있는 구조화된 데이터 카드로 한국어로 정리하세요.

[리포트 원문]
{{.Text}}

[규칙]
1. 티커: 기업명은 티커로 표기하고 영어 그대로 둡니다 (예: $TSLA).
2. 간결성: 짧은 불릿으로 작성하고 수치(%, $, bp)를 우선합니다.
3. 출처: 작성 기관(예: Morgan Stanley, BlackRock) 또는 작성자를 반드시 명시합니다.
4. 작성일: 본문에 작성 또는 발행 시점이 있으면 함께 적습니다.
5. 어조: 헤지펀드 CIO에게 보고하는 전문적인 금융 문체를 사용합니다.

[출력 형식 (Markdown)]
### 📄 [리포트 제목/주제] 분석
* **🏢 작성 기관**: (기관명)
* **💡 한줄 평**: (핵심 논지 한 문장)
* **🌡️ Sentiment**: (-5 ~ +5 점수)
#### 🎯 핵심 투자 아이디어
* **🟢 Long (매수/비중확대)**:
  - **$TICKER**: (목표가 또는 촉매)
* **🔴 Short (매도/리스크)**:
  - **$TICKER**: (리스크 요인)
#### 🔢 핵심 데이터
* (핵심 지표)
* (핵심 지표)
`

const synthesisEN = `Role: CIO of a global macro hedge fund.
Task: Write the "Daily Market Intelligence Brief" from the report summaries below.
The brief has two parts: a mobile dashboard on top (summary and top picks) and a deep dive below it.

[Report Summaries]
{{.Summaries}}

[Constraints]
1. Top Picks need evidence: list only tickers backed by earnings, flows or momentum, and fill the "Evidence/Data Check" column.
2. Separate the dashboard from the deep dive with a horizontal rule (---).
3. Include one contrarian or hidden-gem idea in the dashboard.
4. Escape every dollar sign used with tickers as \$ (write \$NVDA, not $NVDA).
5. Never use country codes as tickers (no \$CN, \$KR, \$JP). Use a representative ETF (\$FXI, \$SOXX) or write the sector name.

[Output Format (Markdown)]
# ☕ Morning Market Brief ({{.Date}})

## ⚡ 3-Minute Dashboard

### 🚦 Market Sentiment Meter
(mark the current position, e.g. ⚫ Fear -----📍 Neutral -----⚫ Greed)

* **One-Liner**: (e.g. dip buying inflows detected)
* **Key Driver**: (the one theme moving markets)
* **Reports Analyzed**: (titles and dates of the reports used)

### 🏆 Today's Top Picks
| Ticker (\$) | Position | Core Rationale | Evidence/Data Check |
| :--- | :--- | :--- | :--- |
| **\$TICKER** | Buy/Sell | (rationale) | (data point) |

### 🦄 Contrarian/Hidden Gem Idea
* (an opportunity the crowd is likely to miss)

---

## 🔍 Deep Dive Analysis

### 🔭 Macro View & Market Regime
(risk-on or risk-off, and where the reports agree or conflict)

### 🚀 Strategic Alpha Opportunities
* **Consensus Trades**: (themes shared by several reports)
* **Sector Rotation**: (where capital is leaving and arriving)
* **Top Picks Deep Dive**: (investment case for each pick above)

### ⚠️ Risk Radar
* **Macro Risks**: (rates, FX, oil)
* **Geopolitics/Events**: (elections, conflicts, earnings dates)
* **Key Levels**: (support and resistance, e.g. S&P 500 at 5000)
`

const synthesisKO = `역할: 글로벌 매크로 헤지펀드의 CIO.
작업: 아래 리포트 요약들을 바탕으로 "데일리 마켓 인텔리전스 브리프"를 한국어로 작성하세요.
브리프는 상단의 모바일 대시보드(요약과 Top Picks)와 하단의 심층 분석 두 부분으로 구성됩니다.

[리포트 요약]
{{.Summaries}}

[제약 조건]
1. Top Picks 검증: 실적, 수급, 모멘텀 등 근거가 있는 티커만 포함하고 "근거/데이터" 열을 반드시 채웁니다.
2. 대시보드와 심층 분석 사이에 가로줄(---)을 넣습니다.
3. 대시보드에 틈새/역발상 아이디어를 하나 포함합니다.
4. 티커에 쓰는 달러 기호는 \$ 로 이스케이프합니다 (\$NVDA).
5. 국가 코드를 티커로 쓰지 않습니다 (\$CN, \$KR, \$JP 금지). 대표 ETF(\$FXI, \$SOXX)를 쓰거나 섹터 이름을 적습니다.
6. 티커는 영어로 유지하고 전문적인 금융 문체를 사용합니다.

[출력 형식 (Markdown)]
# ☕ 모닝 마켓 브리프 ({{.Date}})

## ⚡ 3분 요약 대시보드

### 🚦 시장 심리 지표
(현재 위치 표시, 예: ⚫ 공포 -----📍 중립 -----⚫ 탐욕)

* **한줄 평**: (예: 저가 매수세 유입)
* **핵심 동인**: (시장을 움직이는 핵심 재료 하나)
* **분석 리포트**: (사용한 리포트 제목과 날짜)

### 🏆 오늘의 Top Picks
| 티커 (\$) | 포지션 | 핵심 논리 | 근거/데이터 |
| :--- | :--- | :--- | :--- |
| **\$TICKER** | 매수/매도 | (논리) | (데이터) |

### 🦄 틈새/역발상 아이디어
* (시장이 놓치기 쉬운 기회)

---

## 🔍 심층 분석

### 🔭 매크로 뷰 & 시장 국면
(리스크 온/오프 여부, 리포트 간 일치와 상충)

### 🚀 전략적 알파 기회
* **컨센서스 트레이드**: (여러 리포트가 공유하는 테마)
* **섹터 로테이션**: (자금 유출입 방향)
* **Top Picks 심층 분석**: (위 종목별 투자 포인트)

### ⚠️ 리스크 레이더
* **매크로 리스크**: (금리, 환율, 유가)
* **지정학/이벤트**: (선거, 분쟁, 실적 발표)
* **주요 레벨**: (지지/저항선, 예: S&P 500 5000)
`
