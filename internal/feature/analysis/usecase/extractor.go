package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

var (
	errNoText      = errors.New("response has no text payload")
	errNotAnObject = errors.New("response is not a JSON object")
	errKeyMismatch = errors.New("response keys do not match the expected key set")
)

// AgentSpec はエージェント1種類分の宣言的な定義です。
type AgentSpec struct {
	Name     string
	Template *template.Template
	Keys     []string
	Fallback func() entity.AgentResult
}

// AgentRunner はAgentSpecを入力に対して実行するインターフェースです。
type AgentRunner interface {
	Run(ctx context.Context, spec AgentSpec, input any) (entity.AgentResult, error)
}

// StructuredExtractor はプロンプト生成・モデル呼び出し・JSON解析を行う共通のエージェント実装です。
type StructuredExtractor struct {
	model Model
}

var _ AgentRunner = (*StructuredExtractor)(nil)

// NewStructuredExtractor はStructuredExtractorの新しいインスタンスを生成します。
// modelにはリトライ付きのModelを渡すことを想定しています。
func NewStructuredExtractor(model Model) *StructuredExtractor {
	return &StructuredExtractor{model: model}
}

// Run はspecのプロンプトにinputを埋め込んでモデルを呼び出し、結果を解析します。
//
// モデル呼び出しのエラーはそのまま呼び出し元へ返します。
// レスポンスの解析に失敗した場合はエラーにせず、spec.Fallbackのセンチネル結果を返します。
func (e *StructuredExtractor) Run(ctx context.Context, spec AgentSpec, input any) (entity.AgentResult, error) {
	prompt, err := RenderPrompt(spec.Template, input)
	if err != nil {
		return nil, fmt.Errorf("%s agent: render prompt: %w", spec.Name, err)
	}

	slog.Info("エージェントを実行", "agent", spec.Name)
	completion, err := e.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s agent: %w", spec.Name, err)
	}

	result, err := ParseAgentResult(completion, spec.Keys)
	if err != nil {
		slog.Warn("AIレスポンスの解析に失敗、センチネル結果を使用", "agent", spec.Name, "error", err)
		return spec.Fallback(), nil
	}
	return result, nil
}

// RenderPrompt はテンプレートに入力を埋め込みます。
// 文字列以外の入力はインデント付きJSONにシリアライズしてから埋め込みます。
func RenderPrompt(tmpl *template.Template, input any) (string, error) {
	var text string
	switch v := input.(type) {
	case string:
		text = v
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal input: %w", err)
		}
		text = string(b)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Input string }{Input: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StripCodeFence はMarkdownのコードフェンス（```json / ```）を取り除きます。
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseAgentResult はモデルのレスポンスをJSONオブジェクトとして解析し、キー集合を検証します。
func ParseAgentResult(c Completion, keys []string) (entity.AgentResult, error) {
	if !c.HasText {
		return nil, errNoText
	}

	var decoded any
	if err := json.Unmarshal([]byte(StripCodeFence(c.Text)), &decoded); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, errNotAnObject
	}

	result := entity.AgentResult(obj)
	if !result.HasKeys(keys) {
		return nil, errKeyMismatch
	}
	return result, nil
}
