// Package handler はanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"analyst_backend/internal/api"
	"analyst_backend/internal/feature/analysis/domain/entity"
	docusecase "analyst_backend/internal/feature/document/usecase"
)

// AnalysisUsecase は投資分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalysisUsecase interface {
	AnalyzeDocument(ctx context.Context, doc entity.Document) (*entity.Report, error)
	GenerateDealNotes(ctx context.Context, docs []entity.Document) (entity.AgentResult, error)
	ListReports(ctx context.Context, limit int) ([]entity.StoredReport, error)
	GetReport(ctx context.Context, id uint) (*entity.StoredReport, error)
}

// AnalysisHandler は投資分析のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// Analyze はアップロードされたドキュメントから投資分析レポートを生成します。
//
// エンドポイント: POST /analyze, POST /v1/analyze
// Content-Type: multipart/form-data
// フィールド: file（.txt または .pdf）
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		slog.Warn("ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "file is required"})
		return
	}

	doc, err := readDocument(file)
	if err != nil {
		slog.Error("アップロードファイルの読み取りに失敗", "error", err, "file", file.Filename)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	report, err := h.uc.AnalyzeDocument(c.Request.Context(), doc)
	if err != nil {
		slog.Error("分析に失敗", "error", err, "file", file.Filename)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// DealNotes は複数のドキュメントからディールノートを生成します。
//
// エンドポイント: POST /deal-notes, POST /v1/deal-notes
// Content-Type: multipart/form-data
// フィールド: files（複数可）
func (h *AnalysisHandler) DealNotes(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		slog.Warn("ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "at least one file is required"})
		return
	}

	docs := make([]entity.Document, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		doc, err := readDocument(fh)
		if err != nil {
			slog.Error("アップロードファイルの読み取りに失敗", "error", err, "file", fh.Filename)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
			return
		}
		docs = append(docs, doc)
	}

	notes, err := h.uc.GenerateDealNotes(c.Request.Context(), docs)
	if err != nil {
		slog.Error("ディールノートの生成に失敗", "error", err, "files", len(docs))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, notes)
}

// ListReports はレポート履歴を新しい順に返します。
//
// エンドポイント: GET /v1/reports?limit=20
func (h *AnalysisHandler) ListReports(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reports, err := h.uc.ListReports(c.Request.Context(), limit)
	if err != nil {
		slog.Error("レポート履歴の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.NewReportListResponse(reports))
}

// GetReport は指定IDのレポートを返します。
//
// エンドポイント: GET /v1/reports/:id
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid report id"})
		return
	}

	report, err := h.uc.GetReport(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, entity.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("レポートの取得に失敗", "error", err, "id", id)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.NewStoredReportResponse(report))
}

// readDocument はアップロードされたファイルを読み込みます。
// 上限を超えるファイルはメモリに読み込む前に拒否します。
func readDocument(fh *multipart.FileHeader) (entity.Document, error) {
	if fh.Size > docusecase.MaxDocumentSize {
		return entity.Document{}, tooLarge(fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return entity.Document{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("アップロードファイルのクローズに失敗", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, docusecase.MaxDocumentSize+1))
	if err != nil {
		return entity.Document{}, err
	}
	if len(data) > docusecase.MaxDocumentSize {
		return entity.Document{}, tooLarge(fh.Filename)
	}
	return entity.Document{Filename: fh.Filename, Data: data}, nil
}

func tooLarge(filename string) error {
	return fmt.Errorf("%w: %q exceeds %d bytes", docusecase.ErrDocumentTooLarge, filename, docusecase.MaxDocumentSize)
}
