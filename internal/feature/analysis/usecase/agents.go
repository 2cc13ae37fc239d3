package usecase

import (
	"embed"
	"text/template"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

// エージェント名です。ログとエラーメッセージに使用します。
const (
	AgentFinancial      = "financial"
	AgentMarket         = "market"
	AgentTeam           = "team"
	AgentPublicData     = "public_data"
	AgentRisk           = "risk"
	AgentBenchmark      = "benchmark"
	AgentRecommendation = "recommendation"
	AgentDealNotes      = "deal_notes"
)

const sentinel = entity.SentinelValue

var (
	FinancialAgent = AgentSpec{
		Name:     AgentFinancial,
		Template: mustPrompt("financial"),
		Keys:     []string{"revenue", "cac", "ltv"},
		Fallback: sentinelFor("revenue", "cac", "ltv"),
	}

	MarketAgent = AgentSpec{
		Name:     AgentMarket,
		Template: mustPrompt("market"),
		Keys:     []string{"tam", "sam", "som", "country"},
		Fallback: sentinelFor("tam", "sam", "som", "country"),
	}

	TeamAgent = AgentSpec{
		Name:     AgentTeam,
		Template: mustPrompt("team"),
		Keys:     []string{"founders_background", "team_size", "ip_patents"},
		Fallback: sentinelFor("founders_background", "team_size", "ip_patents"),
	}

	PublicDataAgent = AgentSpec{
		Name:     AgentPublicData,
		Template: mustPrompt("public_data"),
		Keys:     []string{"news_sentiment", "public_data_summary"},
		Fallback: func() entity.AgentResult {
			return entity.AgentResult{
				"news_sentiment":      sentinel,
				"public_data_summary": entity.SentinelMessagePrefix + "public data analysis.",
			}
		},
	}

	RiskAgent = AgentSpec{
		Name:     AgentRisk,
		Template: mustPrompt("risk"),
		Keys:     []string{"financial_risk", "market_risk", "execution_risk", "overall_risk"},
		Fallback: sentinelFor("financial_risk", "market_risk", "execution_risk", "overall_risk"),
	}

	BenchmarkAgent = AgentSpec{
		Name:     AgentBenchmark,
		Template: mustPrompt("benchmark"),
		Keys:     []string{"benchmark_summary"},
		Fallback: func() entity.AgentResult {
			return entity.AgentResult{"benchmark_summary": entity.SentinelMessagePrefix + "benchmark analysis."}
		},
	}

	RecommendationAgent = AgentSpec{
		Name:     AgentRecommendation,
		Template: mustPrompt("recommendation"),
		Keys:     []string{"recommendation", "confidence", "investment_rationale"},
		Fallback: func() entity.AgentResult {
			return entity.AgentResult{
				"recommendation":       sentinel,
				"confidence":           0,
				"investment_rationale": entity.SentinelMessagePrefix + "final recommendation.",
			}
		},
	}

	DealNotesAgent = AgentSpec{
		Name:     AgentDealNotes,
		Template: mustPrompt("deal_notes"),
		Keys:     []string{"company_summary", "recent_updates", "key_discussion_points", "action_items", "red_flags"},
		Fallback: sentinelFor("company_summary", "recent_updates", "key_discussion_points", "action_items", "red_flags"),
	}
)

func mustPrompt(name string) *template.Template {
	return template.Must(template.ParseFS(promptsFS, "prompts/"+name+".md.tmpl"))
}

// sentinelFor は全キーに"Error"を設定したセンチネル結果を生成する関数を返します。
func sentinelFor(keys ...string) func() entity.AgentResult {
	return func() entity.AgentResult {
		r := make(entity.AgentResult, len(keys))
		for _, k := range keys {
			r[k] = sentinel
		}
		return r
	}
}
