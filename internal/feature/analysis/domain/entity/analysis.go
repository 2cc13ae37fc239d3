// Package entity はanalysisフィーチャーのドメインモデルを定義します。
package entity

import "strings"

// UnknownCompany はドキュメントから企業名を導出できない場合のプレースホルダーです。
const UnknownCompany = "Unknown Company"

// AnalysisInput はドキュメントから抽出されたテキストと、そこから導出した企業名を保持します。
// 生成後は変更されません。
type AnalysisInput struct {
	Text        string // 抽出済みの生テキスト
	CompanyName string // テキストの1行目（空の場合はUnknownCompany）
}

// NewAnalysisInput は抽出済みテキストからAnalysisInputを生成します。
func NewAnalysisInput(text string) AnalysisInput {
	return AnalysisInput{Text: text, CompanyName: DeriveCompanyName(text)}
}

// DeriveCompanyName はテキストの1行目を企業名として返します。
// テキストが空、または1行目が空白のみの場合はUnknownCompanyを返します。
func DeriveCompanyName(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimRight(first, "\r")
	if strings.TrimSpace(first) == "" {
		return UnknownCompany
	}
	return first
}

// Document はアップロードされた1ファイル分の内容です。
type Document struct {
	Filename string
	Data     []byte
}
