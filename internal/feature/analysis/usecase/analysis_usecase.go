package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

const (
	// DocumentBoundary は複数ドキュメントを結合する際に各ドキュメントの前に挿入する区切りです。
	DocumentBoundary = "\n\n----- NEW DOCUMENT -----\n\n"
	// DefaultReportListLimit はレポート一覧のデフォルト件数です。
	DefaultReportListLimit = 20
	// MaxReportListLimit はレポート一覧の最大件数です。
	MaxReportListLimit = 100
)

// ErrNoDocuments はディールノート生成にドキュメントが1件も渡されなかったことを示します。
var ErrNoDocuments = errors.New("at least one document is required")

// DocumentParser はドキュメントからテキストを抽出するインターフェースです。
type DocumentParser interface {
	ParseFile(ctx context.Context, path string) (string, error)
	Parse(ctx context.Context, filename string, data []byte) (string, error)
}

// ReportRepository は生成済みレポートの履歴を永続化するインターフェースです。
type ReportRepository interface {
	Save(ctx context.Context, documentHash string, report *entity.Report) (*entity.StoredReport, error)
	FindByID(ctx context.Context, id uint) (*entity.StoredReport, error)
	ListRecent(ctx context.Context, limit int) ([]entity.StoredReport, error)
}

// analysisUsecase はドキュメント取り込みからレポート生成までを統括します。
type analysisUsecase struct {
	parser    DocumentParser
	generator ReportGenerator
	runner    AgentRunner
	reports   ReportRepository
}

// NewAnalysisUsecase はanalysisUsecaseの新しいインスタンスを生成します。
// reportsがnilの場合、レポート履歴は保存されません。
func NewAnalysisUsecase(parser DocumentParser, generator ReportGenerator, runner AgentRunner, reports ReportRepository) *analysisUsecase {
	return &analysisUsecase{parser: parser, generator: generator, runner: runner, reports: reports}
}

// AnalyzeFile はファイルパスからドキュメントを読み込み、レポートを生成します。
func (u *analysisUsecase) AnalyzeFile(ctx context.Context, path string) (*entity.Report, error) {
	text, err := u.parser.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return u.analyze(ctx, text)
}

// AnalyzeDocument はアップロードされたドキュメントからレポートを生成します。
func (u *analysisUsecase) AnalyzeDocument(ctx context.Context, doc entity.Document) (*entity.Report, error) {
	text, err := u.parser.Parse(ctx, doc.Filename, doc.Data)
	if err != nil {
		return nil, err
	}
	return u.analyze(ctx, text)
}

func (u *analysisUsecase) analyze(ctx context.Context, text string) (*entity.Report, error) {
	in := entity.NewAnalysisInput(text)
	report, err := u.generator.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("analysis of %q failed: %w", in.CompanyName, err)
	}

	if u.reports != nil {
		// 履歴の保存失敗はレポート生成の失敗として扱わない
		if _, err := u.reports.Save(ctx, DocumentHash(in.Text), report); err != nil {
			slog.Warn("レポート履歴の保存に失敗", "company", in.CompanyName, "error", err)
		}
	}
	return report, nil
}

// GenerateDealNotes は複数のドキュメントを結合し、ディールノートを生成します。
func (u *analysisUsecase) GenerateDealNotes(ctx context.Context, docs []entity.Document) (entity.AgentResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		text, err := u.parser.Parse(ctx, d.Filename, d.Data)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}

	return u.runner.Run(ctx, DealNotesAgent, JoinDocuments(texts))
}

// ListReports は新しい順にレポート履歴を返します。
func (u *analysisUsecase) ListReports(ctx context.Context, limit int) ([]entity.StoredReport, error) {
	if u.reports == nil {
		return []entity.StoredReport{}, nil
	}
	if limit <= 0 || limit > MaxReportListLimit {
		limit = DefaultReportListLimit
	}
	return u.reports.ListRecent(ctx, limit)
}

// GetReport は指定IDのレポートを返します。
func (u *analysisUsecase) GetReport(ctx context.Context, id uint) (*entity.StoredReport, error) {
	if u.reports == nil {
		return nil, entity.ErrReportNotFound
	}
	return u.reports.FindByID(ctx, id)
}

// JoinDocuments は各ドキュメントの前に区切りを挿入して1つのテキストに結合します。
func JoinDocuments(texts []string) string {
	var b strings.Builder
	for _, t := range texts {
		b.WriteString(DocumentBoundary)
		b.WriteString(t)
	}
	return b.String()
}
