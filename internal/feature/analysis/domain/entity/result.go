package entity

import "fmt"

// AgentResult はエージェント1回の呼び出しで得られる構造化結果です。
// キー集合はエージェントごとに固定で、パース失敗時も全キーがセンチネル値で埋まります。
type AgentResult map[string]any

// Clone はネストしたマップやスライスも含めてAgentResultを複製します。
func (r AgentResult) Clone() AgentResult {
	if r == nil {
		return nil
	}
	out := make(AgentResult, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// String は指定キーの値を文字列として返します。キーが無い場合は空文字列です。
func (r AgentResult) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// HasKeys はrがkeysと完全に一致するキー集合を持つかを返します。
func (r AgentResult) HasKeys(keys []string) bool {
	if len(r) != len(keys) {
		return false
	}
	for _, k := range keys {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}

// Merge は左から順にキーを上書きしながら結果を結合した新しいAgentResultを返します。
// 後ろの結果が優先され、上書きされたキーはcollisionsとして返されます。
// 入力はいずれも変更されません。
func Merge(parts ...AgentResult) (merged AgentResult, collisions []string) {
	merged = AgentResult{}
	for _, p := range parts {
		for k, v := range p {
			if _, exists := merged[k]; exists {
				collisions = append(collisions, k)
			}
			merged[k] = cloneValue(v)
		}
	}
	return merged, collisions
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(AgentResult(t).Clone())
	case AgentResult:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
