package render

import (
	"fmt"
	"io"
	"strings"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

// TextRenderer はターミナル向けのプレーンテキスト形式で出力します。
type TextRenderer struct{}

// Render はレポートをセクションごとに書き出します。
func (TextRenderer) Render(w io.Writer, r *entity.Report) error {
	var b strings.Builder
	m := r.Metrics
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("")
	line("--- Investment Analysis Report ---")
	line("COMPANY: %s", r.CompanyName)
	line("RECOMMENDATION: %s (Confidence: %s %%)", field(r.Recommendation, "recommendation"), field(r.Recommendation, "confidence"))
	line("Rationale: %s", field(r.Recommendation, "investment_rationale"))
	line("")
	line("METRIC SCORECARD:")
	line("  Revenue: %s, CAC: %s, LTV: %s", value(m.Revenue), value(m.CAC), value(m.LTV))
	line("  TAM: %s, SAM: %s, SOM: %s (Market: %s)", value(m.TAM), value(m.SAM), value(m.SOM), value(m.Country))
	line("")
	line("TEAM ASSESSMENT:")
	line("  Founders Background: %s", field(r.Team, "founders_background"))
	line("  Team Size: %s", field(r.Team, "team_size"))
	line("  IP/Patents: %s", field(r.Team, "ip_patents"))
	line("")
	line("PUBLIC DATA:")
	line("  Sentiment: %s", field(r.PublicData, "news_sentiment"))
	line("  Summary: %s", field(r.PublicData, "public_data_summary"))
	line("")
	line("RISK MATRIX:")
	line("  Financial: %s", field(r.Risk, "financial_risk"))
	line("  Market: %s", field(r.Risk, "market_risk"))
	line("  Execution: %s", field(r.Risk, "execution_risk"))
	line("  Overall Risk: %s", field(r.Risk, "overall_risk"))
	line("")
	line("BENCHMARK ANALYSIS:")
	line("  %s", field(r.Benchmark, "benchmark_summary"))
	line("---------------------------------")

	_, err := io.WriteString(w, b.String())
	return err
}
