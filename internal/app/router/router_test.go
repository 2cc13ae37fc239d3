package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analyst_backend/internal/feature/analysis/domain/entity"
	analysishandler "analyst_backend/internal/feature/analysis/transport/handler"
	"analyst_backend/internal/platform/config"
	jwtmw "analyst_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubUsecase は空の履歴を返すAnalysisUsecaseです。
type stubUsecase struct{}

func (stubUsecase) AnalyzeDocument(ctx context.Context, doc entity.Document) (*entity.Report, error) {
	return &entity.Report{CompanyName: "Acme"}, nil
}

func (stubUsecase) GenerateDealNotes(ctx context.Context, docs []entity.Document) (entity.AgentResult, error) {
	return entity.AgentResult{}, nil
}

func (stubUsecase) ListReports(ctx context.Context, limit int) ([]entity.StoredReport, error) {
	return []entity.StoredReport{}, nil
}

func (stubUsecase) GetReport(ctx context.Context, id uint) (*entity.StoredReport, error) {
	return nil, entity.ErrReportNotFound
}

func newTestRouter(cfg config.ServerConfig) *gin.Engine {
	return NewRouter(cfg, analysishandler.NewAnalysisHandler(stubUsecase{}))
}

func get(r *gin.Engine, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// postFiles はfieldにdeck.txtを添付したmultipartリクエストを送信します。
func postFiles(t *testing.T, r *gin.Engine, path, field string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, "deck.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Acme Corp\nWe build rockets."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_UploadRoutes(t *testing.T) {
	t.Parallel()

	token, err := jwtmw.NewGenerator("secret", time.Hour).GenerateToken("web-ui")
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	routes := []struct {
		path  string
		field string
	}{
		{"/analyze", "file"},
		{"/deal-notes", "files"},
		{"/v1/analyze", "file"},
		{"/v1/deal-notes", "files"},
	}

	for _, rt := range routes {
		t.Run("success: "+rt.path+" without secret", func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(config.ServerConfig{})

			assert.Equal(t, http.StatusOK, postFiles(t, r, rt.path, rt.field, nil).Code)
		})

		t.Run("error: "+rt.path+" requires token when secret is set", func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(config.ServerConfig{JWTSecret: "secret"})

			assert.Equal(t, http.StatusUnauthorized, postFiles(t, r, rt.path, rt.field, nil).Code)
			assert.Equal(t, http.StatusOK, postFiles(t, r, rt.path, rt.field, bearer).Code)
		})
	}
}

func TestNewRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	r := newTestRouter(config.ServerConfig{JWTSecret: "secret"})

	assert.Equal(t, http.StatusOK, get(r, "/healthz", nil).Code)
}

func TestNewRouter_WithoutSecret(t *testing.T) {
	t.Parallel()

	r := newTestRouter(config.ServerConfig{})

	assert.Equal(t, http.StatusOK, get(r, "/v1/reports", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/v1/reports/1", nil).Code)
}

func TestNewRouter_WithSecret(t *testing.T) {
	t.Parallel()

	r := newTestRouter(config.ServerConfig{JWTSecret: "secret"})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/v1/reports", nil).Code)

	token, err := jwtmw.NewGenerator("secret", time.Hour).GenerateToken("client-1")
	require.NoError(t, err)
	w := get(r, "/v1/reports", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reports":[]}`, w.Body.String())
}

func TestNewRouter_CORS(t *testing.T) {
	t.Parallel()

	r := newTestRouter(config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})

	w := get(r, "/healthz", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/healthz", map[string]string{"Origin": "http://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
