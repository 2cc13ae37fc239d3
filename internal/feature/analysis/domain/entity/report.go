package entity

import (
	"strings"
	"time"
)

const (
	// SentinelValue は出力を解析できなかったエージェントが各キーに設定する値です。
	SentinelValue = "Error"
	// SentinelMessagePrefix は説明文を持つセンチネル値の接頭辞です。
	SentinelMessagePrefix = "Error processing "
)

// Metrics は財務・市場エージェントの結果から抜き出した指標のスコアカードです。
// 値はモデル出力をそのまま保持するため、文字列または数値になり得ます。
type Metrics struct {
	Revenue any `json:"revenue"`
	CAC     any `json:"cac"`
	LTV     any `json:"ltv"`
	TAM     any `json:"tam"`
	SAM     any `json:"sam"`
	SOM     any `json:"som"`
	Country any `json:"country"`
}

// Report はパイプライン全体の最終成果物である投資分析レポートです。
type Report struct {
	CompanyName    string      `json:"company_name"`
	Recommendation AgentResult `json:"recommendation"`
	Metrics        Metrics     `json:"metrics"`
	Team           AgentResult `json:"team"`
	PublicData     AgentResult `json:"public_data"`
	Risk           AgentResult `json:"risk"`
	Benchmark      AgentResult `json:"benchmark"`
}

// Degraded はいずれかのエージェントがセンチネル結果にフォールバックしているかを返します。
func (r *Report) Degraded() bool {
	for _, v := range []any{r.Metrics.Revenue, r.Metrics.CAC, r.Metrics.LTV, r.Metrics.TAM, r.Metrics.SAM, r.Metrics.SOM, r.Metrics.Country} {
		if isSentinel(v) {
			return true
		}
	}
	for _, res := range []AgentResult{r.Recommendation, r.Team, r.PublicData, r.Risk, r.Benchmark} {
		for _, v := range res {
			if isSentinel(v) {
				return true
			}
		}
	}
	return false
}

func isSentinel(v any) bool {
	s, ok := v.(string)
	return ok && (s == SentinelValue || strings.HasPrefix(s, SentinelMessagePrefix))
}

// StoredReport は履歴ストアに保存されたレポートです。
type StoredReport struct {
	ID           uint
	DocumentHash string
	CreatedAt    time.Time
	Report       Report
}
