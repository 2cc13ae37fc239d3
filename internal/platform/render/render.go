// Package render はCLI向けに投資分析レポートを整形して出力します。
package render

import (
	"fmt"
	"io"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

// Format はレポートの出力形式です。
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// missing は値が存在しない場合の表示です。
const missing = "N/A"

// Renderer はレポートをwへ書き出します。
type Renderer interface {
	Render(w io.Writer, r *entity.Report) error
}

// New は形式に対応するRendererを返します。
func New(format Format) (Renderer, error) {
	switch format {
	case FormatText, "":
		return TextRenderer{}, nil
	case FormatMarkdown:
		return MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or markdown)", format)
	}
}

// value はモデル出力の値を表示用の文字列にします。
func value(v any) string {
	if v == nil {
		return missing
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return missing
		}
		return s
	}
	return fmt.Sprint(v)
}

func field(r entity.AgentResult, key string) string {
	return value(r[key])
}
