// Package api はHTTP APIのリクエスト・レスポンス型を定義します。
package api

import (
	"time"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

// ErrorResponse はすべてのエラーレスポンスの形式です。
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse は /healthz のレスポンスです。
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ReportSummary はレポート一覧の1件分です。
type ReportSummary struct {
	ID             uint      `json:"id"`
	CompanyName    string    `json:"company_name"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReportListResponse は GET /v1/reports のレスポンスです。
type ReportListResponse struct {
	Reports []ReportSummary `json:"reports"`
}

// StoredReportResponse は GET /v1/reports/:id のレスポンスです。
type StoredReportResponse struct {
	ID           uint          `json:"id"`
	DocumentHash string        `json:"document_hash"`
	CreatedAt    time.Time     `json:"created_at"`
	Report       entity.Report `json:"report"`
}

// NewReportListResponse は履歴エントリを一覧レスポンスに変換します。
func NewReportListResponse(stored []entity.StoredReport) ReportListResponse {
	out := ReportListResponse{Reports: make([]ReportSummary, 0, len(stored))}
	for _, s := range stored {
		out.Reports = append(out.Reports, ReportSummary{
			ID:             s.ID,
			CompanyName:    s.Report.CompanyName,
			Recommendation: s.Report.Recommendation.String("recommendation"),
			CreatedAt:      s.CreatedAt,
		})
	}
	return out
}

// NewStoredReportResponse は履歴エントリを詳細レスポンスに変換します。
func NewStoredReportResponse(s *entity.StoredReport) StoredReportResponse {
	return StoredReportResponse{
		ID:           s.ID,
		DocumentHash: s.DocumentHash,
		CreatedAt:    s.CreatedAt,
		Report:       s.Report,
	}
}
