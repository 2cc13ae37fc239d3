// Package adapters はanalysisフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/feature/analysis/usecase"
)

// ReportModel はレポート履歴テーブルのGORMモデルです。
// レポート本体はJSONとして1カラムに保存します。
type ReportModel struct {
	ID             uint          `gorm:"primaryKey"`
	DocumentHash   string        `gorm:"size:64;index"`
	CompanyName    string        `gorm:"size:255;index"`
	Recommendation string        `gorm:"size:255"`
	Report         entity.Report `gorm:"serializer:json;type:text"`
	CreatedAt      time.Time     `gorm:"index"`
}

// indexedColumnSize は検索用カラムの最大文字数です。全文はReportカラムに残ります。
const indexedColumnSize = 255

// TableName はテーブル名を返します。
func (ReportModel) TableName() string { return "reports" }

func (m *ReportModel) toEntity() entity.StoredReport {
	return entity.StoredReport{
		ID:           m.ID,
		DocumentHash: m.DocumentHash,
		CreatedAt:    m.CreatedAt,
		Report:       m.Report,
	}
}

// reportGorm はReportRepositoryインターフェースのGORM実装です。
type reportGorm struct {
	db *gorm.DB
}

// reportGormがReportRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.ReportRepository = (*reportGorm)(nil)

// NewReportRepository は指定されたgorm.DB接続でreportGormの新しいインスタンスを生成します。
func NewReportRepository(db *gorm.DB) *reportGorm {
	return &reportGorm{db: db}
}

// Save はレポートを履歴に追加します。
func (r *reportGorm) Save(ctx context.Context, documentHash string, report *entity.Report) (*entity.StoredReport, error) {
	m := ReportModel{
		DocumentHash:   documentHash,
		CompanyName:    truncate(report.CompanyName, indexedColumnSize),
		Recommendation: truncate(report.Recommendation.String("recommendation"), indexedColumnSize),
		Report:         *report,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	out := m.toEntity()
	return &out, nil
}

// FindByID はIDでレポートを取得します。
// 存在しない場合、entity.ErrReportNotFoundを返します。
func (r *reportGorm) FindByID(ctx context.Context, id uint) (*entity.StoredReport, error) {
	var m ReportModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrReportNotFound
		}
		return nil, err
	}
	out := m.toEntity()
	return &out, nil
}

// ListRecent は新しい順に最大limit件のレポートを返します。
func (r *reportGorm) ListRecent(ctx context.Context, limit int) ([]entity.StoredReport, error) {
	var rows []ReportModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.StoredReport, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

// truncate はsを最大n文字（rune単位）に切り詰めます。
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
