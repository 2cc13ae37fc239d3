package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analyst_backend/internal/app/di"
	"analyst_backend/internal/app/router"
	analysishandler "analyst_backend/internal/feature/analysis/transport/handler"
	"analyst_backend/internal/platform/config"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	if err := cfg.Gemini.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// コンテナ（モデル、キャッシュ、履歴DB）
	c, err := di.NewContainer(ctx, cfg, di.Options{History: true})
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Error("クライアントの解放に失敗しました", "error", err)
		}
	}()

	// ルータ生成
	h := analysishandler.NewAnalysisHandler(c.Analysis)
	r := router.NewRouter(cfg.Server, h, c.HealthChecks...)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("サーバーを起動します", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("サーバーが異常終了しました", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("シャットダウンに失敗しました", "error", err)
	}
}
