package render

import (
	"io"

	"github.com/nao1215/markdown"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

// MarkdownRenderer はGitHub Flavored Markdown形式で出力します。
// ディールメモとしてそのまま共有できる形にします。
type MarkdownRenderer struct{}

// Render はレポートをMarkdownで書き出します。
func (MarkdownRenderer) Render(w io.Writer, r *entity.Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Investment Analysis Report: " + r.CompanyName)
	md.PlainText("")
	writeRecommendation(md, r)
	writeScorecard(md, r.Metrics)

	md.H2("Team Assessment")
	md.PlainText("")
	md.BulletList(
		"Founders Background: "+field(r.Team, "founders_background"),
		"Team Size: "+field(r.Team, "team_size"),
		"IP/Patents: "+field(r.Team, "ip_patents"),
	)
	md.PlainText("")

	md.H2("Public Data")
	md.PlainText("")
	md.BulletList(
		"Sentiment: "+field(r.PublicData, "news_sentiment"),
		"Summary: "+field(r.PublicData, "public_data_summary"),
	)
	md.PlainText("")

	md.H2("Risk Matrix")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Risk", "Assessment"},
		Rows: [][]string{
			{"Financial", field(r.Risk, "financial_risk")},
			{"Market", field(r.Risk, "market_risk")},
			{"Execution", field(r.Risk, "execution_risk")},
			{"**Overall**", "**" + field(r.Risk, "overall_risk") + "**"},
		},
	})
	md.PlainText("")

	md.H2("Benchmark Analysis")
	md.PlainText("")
	md.PlainText(field(r.Benchmark, "benchmark_summary"))

	return md.Build()
}

func writeRecommendation(md *markdown.Markdown, r *entity.Report) {
	md.H2("Recommendation")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Decision", "Confidence"},
		Rows: [][]string{
			{field(r.Recommendation, "recommendation"), field(r.Recommendation, "confidence") + " %"},
		},
	})
	md.PlainText("")

	rationale := field(r.Recommendation, "investment_rationale")
	if field(r.Recommendation, "recommendation") == "Error" {
		md.Warningf("%s", rationale)
	} else {
		md.PlainText(rationale)
	}
	md.PlainText("")
}

func writeScorecard(md *markdown.Markdown, m entity.Metrics) {
	md.H2("Metric Scorecard")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Revenue", value(m.Revenue)},
			{"CAC", value(m.CAC)},
			{"LTV", value(m.LTV)},
			{"TAM", value(m.TAM)},
			{"SAM", value(m.SAM)},
			{"SOM", value(m.SOM)},
			{"Market", value(m.Country)},
		},
	})
	md.PlainText("")
}
