package entity

import "errors"

var (
	// ErrRateLimited はモデル呼び出しがクォータ超過（レート制限）で失敗したことを示します。
	// リトライ対象となる唯一のエラー種別です。
	ErrRateLimited = errors.New("model quota exhausted")

	// ErrReportNotFound は指定IDのレポートが履歴に存在しないことを示します。
	ErrReportNotFound = errors.New("report not found")
)
