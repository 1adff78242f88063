package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"coinsight/internal/analysis"
)

type analyzeResponse struct {
	analysis.Result
	Commentary string `json:"commentary,omitempty"`
}

// routes 组装分析HTTP接口的路由。
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		pair := strings.TrimSpace(r.URL.Query().Get("pair"))
		if pair == "" {
			http.Error(w, "missing pair parameter", http.StatusBadRequest)
			return
		}

		timeframe := strings.TrimSpace(r.URL.Query().Get("timeframe"))

		result, err := a.AnalyzePair(r.Context(), pair, timeframe)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, ErrUnknownPair):
				status = http.StatusNotFound
			case errors.Is(err, analysis.ErrInsufficientData):
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}

		resp := analyzeResponse{Result: result}
		if r.URL.Query().Get("commentary") == "true" {
			commentary, err := a.Commentary(r.Context(), result)
			if err != nil {
				a.logger.Warn("生成解读失败", zap.String("pair", pair), zap.Error(err))
			} else {
				resp.Commentary = commentary
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			a.logger.Warn("写入分析响应失败", zap.Error(err))
		}
	})

	return mux
}

// startServer 启动分析HTTP接口，随上下文取消而优雅关闭。
func (a *App) startServer(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: a.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			a.logger.Warn("关闭HTTP服务失败", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP服务异常", zap.Error(err))
		}
	}()

	a.logger.Info("分析接口已启动", zap.String("addr", addr))
	return nil
}
