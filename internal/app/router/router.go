// Package router はHTTP APIのルーティングを定義します。
package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	analysishandler "analyst_backend/internal/feature/analysis/transport/handler"
	"analyst_backend/internal/platform/config"
	"analyst_backend/internal/platform/http/handler"
	jwtmw "analyst_backend/internal/platform/jwt"
)

// NewRouter はAPIのルーティングを設定したgin.Engineを生成します。
func NewRouter(cfg config.ServerConfig, analysis *analysishandler.AnalysisHandler, checks ...handler.Check) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Web UIからのアクセスを許可するオリジン
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 認証不要
	// 導通確認用
	health := handler.Health(checks...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	// JWT_SECRETが設定されている場合のみBearerトークンを要求する
	var auth []gin.HandlerFunc
	if cfg.JWTSecret != "" {
		auth = append(auth, jwtmw.AuthRequired(cfg.JWTSecret))
	} else {
		slog.Warn("JWT_SECRETが未設定のため、APIは認証なしで公開されます")
	}

	// Web UIが呼び出すルート直下のパス
	web := r.Group("/", auth...)
	{
		web.POST("/analyze", analysis.Analyze)
		web.POST("/deal-notes", analysis.DealNotes)
	}

	v1 := r.Group("/v1", auth...)
	{
		v1.POST("/analyze", analysis.Analyze)
		v1.POST("/deal-notes", analysis.DealNotes)
		v1.GET("/reports", analysis.ListReports)
		v1.GET("/reports/:id", analysis.GetReport)
	}

	return r
}
