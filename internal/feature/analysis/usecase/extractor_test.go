package usecase_test

import (
	"context"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/feature/analysis/usecase"
)

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence with padding", "  ```\n{\"a\": 1}\n```  \n", `{"a": 1}`},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, usecase.StripCodeFence(tt.in))
		})
	}
}

func TestParseAgentResult(t *testing.T) {
	t.Parallel()

	keys := []string{"revenue", "cac", "ltv"}

	tests := []struct {
		name    string
		in      usecase.Completion
		want    entity.AgentResult
		wantErr bool
	}{
		{
			name: "success: exact keys",
			in:   text(`{"revenue": "$1M", "cac": 50, "ltv": "Not Found"}`),
			want: entity.AgentResult{"revenue": "$1M", "cac": float64(50), "ltv": "Not Found"},
		},
		{
			name: "success: fenced",
			in:   text("```json\n{\"revenue\": \"$1M\", \"cac\": \"$5\", \"ltv\": \"$9\"}\n```"),
			want: entity.AgentResult{"revenue": "$1M", "cac": "$5", "ltv": "$9"},
		},
		{name: "error: no text payload", in: usecase.Completion{}, wantErr: true},
		{name: "error: invalid json", in: text("I cannot help with that."), wantErr: true},
		{name: "error: array instead of object", in: text(`[1, 2, 3]`), wantErr: true},
		{name: "error: missing key", in: text(`{"revenue": "$1M", "cac": "$5"}`), wantErr: true},
		{name: "error: extra key", in: text(`{"revenue": "$1M", "cac": "$5", "ltv": "$9", "notes": "x"}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := usecase.ParseAgentResult(tt.in, keys)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	t.Parallel()

	tmpl := template.Must(template.New("t").Parse("Input:\n{{.Input}}"))

	t.Run("string input is embedded verbatim", func(t *testing.T) {
		t.Parallel()
		got, err := usecase.RenderPrompt(tmpl, "Acme Corp\n<b>raw</b>")
		require.NoError(t, err)
		assert.Equal(t, "Input:\nAcme Corp\n<b>raw</b>", got)
	})

	t.Run("structured input is indented json", func(t *testing.T) {
		t.Parallel()
		got, err := usecase.RenderPrompt(tmpl, entity.AgentResult{"company_name": "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "Input:\n{\n  \"company_name\": \"Acme\"\n}", got)
	})
}

func TestStructuredExtractor_Run(t *testing.T) {
	t.Parallel()

	t.Run("success: parsed result returned", func(t *testing.T) {
		t.Parallel()
		model := scriptedModel(happyResponses())
		ex := usecase.NewStructuredExtractor(model)

		got, err := ex.Run(context.Background(), usecase.FinancialAgent, "Acme Corp\nRevenue is $500k ARR")

		require.NoError(t, err)
		assert.Equal(t, entity.AgentResult{"revenue": "$500k ARR", "cac": "$200", "ltv": "$2,000"}, got)
		require.Equal(t, 1, model.Calls())
		assert.Contains(t, model.Prompts[0], "Revenue is $500k ARR")
	})

	t.Run("success: public data prompt embeds company name", func(t *testing.T) {
		t.Parallel()
		model := scriptedModel(happyResponses())
		ex := usecase.NewStructuredExtractor(model)

		_, err := ex.Run(context.Background(), usecase.PublicDataAgent, "Acme Corp")

		require.NoError(t, err)
		assert.Contains(t, model.Prompts[0], "'Acme Corp'")
	})

	sentinelCases := []struct {
		name       string
		spec       usecase.AgentSpec
		completion usecase.Completion
		want       entity.AgentResult
	}{
		{
			name:       "unparseable financial response",
			spec:       usecase.FinancialAgent,
			completion: text("Sorry, I can't do that"),
			want:       entity.AgentResult{"revenue": "Error", "cac": "Error", "ltv": "Error"},
		},
		{
			name:       "empty market response",
			spec:       usecase.MarketAgent,
			completion: usecase.Completion{},
			want:       entity.AgentResult{"tam": "Error", "sam": "Error", "som": "Error", "country": "Error"},
		},
		{
			name:       "team response missing a key",
			spec:       usecase.TeamAgent,
			completion: text(`{"founders_background": "x"}`),
			want:       entity.AgentResult{"founders_background": "Error", "team_size": "Error", "ip_patents": "Error"},
		},
		{
			name:       "public data",
			spec:       usecase.PublicDataAgent,
			completion: text("nope"),
			want:       entity.AgentResult{"news_sentiment": "Error", "public_data_summary": "Error processing public data analysis."},
		},
		{
			name:       "risk",
			spec:       usecase.RiskAgent,
			completion: text("nope"),
			want: entity.AgentResult{
				"financial_risk": "Error", "market_risk": "Error", "execution_risk": "Error", "overall_risk": "Error",
			},
		},
		{
			name:       "benchmark",
			spec:       usecase.BenchmarkAgent,
			completion: text("nope"),
			want:       entity.AgentResult{"benchmark_summary": "Error processing benchmark analysis."},
		},
		{
			name:       "recommendation",
			spec:       usecase.RecommendationAgent,
			completion: text("nope"),
			want: entity.AgentResult{
				"recommendation": "Error", "confidence": 0, "investment_rationale": "Error processing final recommendation.",
			},
		},
		{
			name:       "deal notes",
			spec:       usecase.DealNotesAgent,
			completion: text("nope"),
			want: entity.AgentResult{
				"company_summary": "Error", "recent_updates": "Error", "key_discussion_points": "Error",
				"action_items": "Error", "red_flags": "Error",
			},
		},
	}

	for _, tc := range sentinelCases {
		t.Run("sentinel: "+tc.name, func(t *testing.T) {
			t.Parallel()
			model := &mockModel{
				GenerateFunc: func(ctx context.Context, prompt string) (usecase.Completion, error) {
					return tc.completion, nil
				},
			}
			ex := usecase.NewStructuredExtractor(model)

			got, err := ex.Run(context.Background(), tc.spec, "input")

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.HasKeys(tc.spec.Keys))
		})
	}

	t.Run("error: transport failure propagates", func(t *testing.T) {
		t.Parallel()
		model := &mockModel{
			GenerateFunc: func(ctx context.Context, prompt string) (usecase.Completion, error) {
				return usecase.Completion{}, ErrAPI
			},
		}
		ex := usecase.NewStructuredExtractor(model)

		got, err := ex.Run(context.Background(), usecase.RiskAgent, entity.AgentResult{})

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrAPI)
		assert.Contains(t, err.Error(), "risk agent")
	})

	t.Run("error: rate limit is not turned into a sentinel", func(t *testing.T) {
		t.Parallel()
		model := &mockModel{
			GenerateFunc: func(ctx context.Context, prompt string) (usecase.Completion, error) {
				return usecase.Completion{}, entity.ErrRateLimited
			},
		}
		ex := usecase.NewStructuredExtractor(model)

		_, err := ex.Run(context.Background(), usecase.FinancialAgent, "x")

		assert.ErrorIs(t, err, entity.ErrRateLimited)
	})
}

func TestAgentSpecs_FallbacksAreFresh(t *testing.T) {
	t.Parallel()

	first := usecase.FinancialAgent.Fallback()
	first["revenue"] = "mutated"

	assert.Equal(t, "Error", usecase.FinancialAgent.Fallback()["revenue"])
}
