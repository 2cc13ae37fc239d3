package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/feature/analysis/usecase"
)

// ErrAPI はモックと期待値の間で共有されるセンチネルエラーです。
var ErrAPI = errors.New("api error")

// mockModel はModelインターフェースのモック実装です。
type mockModel struct {
	mu           sync.Mutex
	GenerateFunc func(ctx context.Context, prompt string) (usecase.Completion, error)
	Prompts      []string
}

func (m *mockModel) Generate(ctx context.Context, prompt string) (usecase.Completion, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return usecase.Completion{}, errors.New("GenerateFunc is not implemented")
}

func (m *mockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// text は本文付きのCompletionを返します。
func text(s string) usecase.Completion {
	return usecase.Completion{Text: s, HasText: true}
}

// promptOpenings はエージェント名とプロンプト冒頭の対応です。
var promptOpenings = map[string]string{
	usecase.AgentFinancial:      "You extract financial metrics",
	usecase.AgentMarket:         "You are a market sizing analyst",
	usecase.AgentTeam:           "Review the startup description",
	usecase.AgentPublicData:     "Using your general knowledge",
	usecase.AgentRisk:           "You are a startup risk analyst",
	usecase.AgentBenchmark:      "You are a startup analyst. Compare",
	usecase.AgentRecommendation: "You are a principal at a venture capital firm",
	usecase.AgentDealNotes:      "You are a venture capital analyst",
}

// agentOf はプロンプトからエージェント名を判定します。
func agentOf(prompt string) string {
	for name, opening := range promptOpenings {
		if strings.HasPrefix(prompt, opening) {
			return name
		}
	}
	return ""
}

// scriptedModel はエージェントごとに固定のレスポンスを返すModelを生成します。
func scriptedModel(responses map[string]string) *mockModel {
	return &mockModel{
		GenerateFunc: func(ctx context.Context, prompt string) (usecase.Completion, error) {
			resp, ok := responses[agentOf(prompt)]
			if !ok {
				return usecase.Completion{}, errors.New("unexpected prompt")
			}
			return text(resp), nil
		},
	}
}

// happyResponses はAcme Corpのドキュメントに対する各エージェントの正常レスポンスです。
func happyResponses() map[string]string {
	return map[string]string{
		usecase.AgentFinancial:      `{"revenue": "$500k ARR", "cac": "$200", "ltv": "$2,000"}`,
		usecase.AgentMarket:         "```json\n{\"tam\": \"$10B\", \"sam\": \"$1B\", \"som\": \"$50M\", \"country\": \"USA\"}\n```",
		usecase.AgentTeam:           `{"founders_background": "ex-Google engineers", "team_size": 12, "ip_patents": "None"}`,
		usecase.AgentPublicData:     `{"news_sentiment": "Positive", "public_data_summary": "Seed round covered by TechCrunch."}`,
		usecase.AgentRisk:           `{"financial_risk": "Low burn", "market_risk": "Crowded", "execution_risk": "Small team", "overall_risk": "MEDIUM"}`,
		usecase.AgentBenchmark:      `{"benchmark_summary": "LTV/CAC of 10x is above median."}`,
		usecase.AgentRecommendation: `{"recommendation": "Invest", "confidence": 8, "investment_rationale": "Strong unit economics."}`,
		usecase.AgentDealNotes:      `{"company_summary": "Acme", "recent_updates": "Hired CTO", "key_discussion_points": "Pricing", "action_items": "Send term sheet", "red_flags": "None"}`,
	}
}

// mockAgentRunner はAgentRunnerインターフェースのモック実装です。
// 呼び出しはspec.Name単位で記録されます。
type mockAgentRunner struct {
	mu      sync.Mutex
	RunFunc func(ctx context.Context, spec usecase.AgentSpec, input any) (entity.AgentResult, error)
	Inputs  map[string]any
	Order   []string
}

func (m *mockAgentRunner) Run(ctx context.Context, spec usecase.AgentSpec, input any) (entity.AgentResult, error) {
	m.mu.Lock()
	if m.Inputs == nil {
		m.Inputs = map[string]any{}
	}
	m.Inputs[spec.Name] = input
	m.Order = append(m.Order, spec.Name)
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, spec, input)
	}
	return nil, errors.New("RunFunc is not implemented")
}

func (m *mockAgentRunner) Called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Inputs[name]
	return ok
}

func (m *mockAgentRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Order)
}

// mockDocumentParser はDocumentParserインターフェースのモック実装です。
type mockDocumentParser struct {
	ParseFileFunc func(ctx context.Context, path string) (string, error)
	ParseFunc     func(ctx context.Context, filename string, data []byte) (string, error)
	ParseCalls    int
}

func (m *mockDocumentParser) ParseFile(ctx context.Context, path string) (string, error) {
	if m.ParseFileFunc != nil {
		return m.ParseFileFunc(ctx, path)
	}
	return "", errors.New("ParseFileFunc is not implemented")
}

func (m *mockDocumentParser) Parse(ctx context.Context, filename string, data []byte) (string, error) {
	m.ParseCalls++
	if m.ParseFunc != nil {
		return m.ParseFunc(ctx, filename, data)
	}
	return string(data), nil
}

// mockReportRepository はReportRepositoryインターフェースのモック実装です。
type mockReportRepository struct {
	SaveFunc       func(ctx context.Context, documentHash string, report *entity.Report) (*entity.StoredReport, error)
	FindByIDFunc   func(ctx context.Context, id uint) (*entity.StoredReport, error)
	ListRecentFunc func(ctx context.Context, limit int) ([]entity.StoredReport, error)
	SaveCalls      int
	SavedHash      string
	ListLimit      int
}

func (m *mockReportRepository) Save(ctx context.Context, documentHash string, report *entity.Report) (*entity.StoredReport, error) {
	m.SaveCalls++
	m.SavedHash = documentHash
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, documentHash, report)
	}
	return &entity.StoredReport{ID: 1, DocumentHash: documentHash, Report: *report}, nil
}

func (m *mockReportRepository) FindByID(ctx context.Context, id uint) (*entity.StoredReport, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, entity.ErrReportNotFound
}

func (m *mockReportRepository) ListRecent(ctx context.Context, limit int) ([]entity.StoredReport, error) {
	m.ListLimit = limit
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return []entity.StoredReport{}, nil
}
