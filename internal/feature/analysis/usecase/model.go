// Package usecase はanalysisフィーチャーのビジネスロジック（エージェント実行とパイプライン）を実装します。
package usecase

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Completion はモデル呼び出しが成功した場合の結果です。
// HasTextがfalseの場合、レスポンスにテキストが含まれていなかったことを示します。
type Completion struct {
	Text    string
	HasText bool
}

// Model は生成AIモデルへの呼び出しを抽象化するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
//
// 失敗時のエラーは entity.ErrRateLimited（一時的・リトライ可能）か、
// それ以外（恒久的）のいずれかに分類されます。
type Model interface {
	Generate(ctx context.Context, prompt string) (Completion, error)
}

// DocumentHash はドキュメント本文のBLAKE2b-256ハッシュを16進文字列で返します。
// キャッシュキーと履歴の重複判定に使用します。
func DocumentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
