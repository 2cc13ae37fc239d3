// Package main はスタートアップ資料から投資分析レポートを生成するCLIのエントリーポイントです。
//
// Usage:
//
//	analyze <file>
//	analyze --format markdown deck.pdf > memo.md
//	analyze token --subject web-ui
//	analyze cache purge
package main

func main() {
	Execute()
}
