// Package gemini はGoogle Gemini APIを使用したModel実装を提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/feature/analysis/usecase"
	"analyst_backend/internal/platform/config"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"

	statusResourceExhausted = "RESOURCE_EXHAUSTED"
)

// GeminiModel はGoogle Gemini APIを呼び出すusecase.Modelの実装です。
type GeminiModel struct {
	client *genai.Client
	model  string
}

// GeminiModelがModelを実装していることをコンパイル時に検証します。
var _ usecase.Model = (*GeminiModel)(nil)

// NewGeminiModel は設定からGeminiModelの新しいインスタンスを生成します。
//
// プロジェクトが設定されている場合はVertex AIバックエンド（ADC認証）を使用し、
// そうでなくAPIキーのみが設定されている場合はGemini APIバックエンドを使用します。
func NewGeminiModel(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, ClientConfig(cfg, httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiModel{client: client, model: model}, nil
}

// ClientConfig は設定からgenai.ClientConfigを組み立てます。
func ClientConfig(cfg config.GeminiConfig, httpClient *http.Client) *genai.ClientConfig {
	cc := &genai.ClientConfig{HTTPClient: httpClient}
	if cfg.UsesVertexAI() {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	} else {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}
	return cc
}

// Generate はプロンプトを送信し、レスポンスのテキストを返します。
// クォータ超過はentity.ErrRateLimitedでラップして返します。
func (g *GeminiModel) Generate(ctx context.Context, prompt string) (usecase.Completion, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return usecase.Completion{}, classifyError(err)
	}

	text := resp.Text()
	return usecase.Completion{Text: text, HasText: text != ""}, nil
}

func classifyError(err error) error {
	if IsQuotaExhausted(err) {
		return fmt.Errorf("%w: %w", entity.ErrRateLimited, err)
	}
	return fmt.Errorf("gemini API request failed: %w", err)
}

// IsQuotaExhausted はエラーがクォータ超過（HTTP 429 / RESOURCE_EXHAUSTED）を示すかを返します。
func IsQuotaExhausted(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isQuotaStatus(apiErr.Code, apiErr.Status)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return isQuotaStatus(apiErrPtr.Code, apiErrPtr.Status)
	}
	return false
}

func isQuotaStatus(code int, status string) bool {
	return code == http.StatusTooManyRequests || status == statusResourceExhausted
}
