package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	cfgpkg "github.com/taoyao-code/pl81-usb/internal/config"
	"github.com/taoyao-code/pl81-usb/internal/health"
	"github.com/taoyao-code/pl81-usb/internal/relay"
)

// Server HTTP 服务封装：健康检查、指标与会话状态的观察面
type Server struct {
	srv *http.Server
}

// New 创建并配置 Gin + HTTP Server
// snapshotFn 提供中继会话快照（/api/session）；agg 注册详细健康检查路由；
// 两者都允许为 nil（pl81ctl 等不开中继的场景）
func New(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, readyFn func() bool, snapshotFn func() relay.Snapshot, agg *health.Aggregator) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if readyFn == nil || readyFn() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}
	if snapshotFn != nil {
		r.GET("/api/session", func(c *gin.Context) {
			c.JSON(http.StatusOK, snapshotFn())
		})
	}
	if agg != nil {
		health.RegisterHTTPRoutes(r, agg)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{srv: srv}
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
