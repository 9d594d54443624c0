package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfgpkg "github.com/taoyao-code/pl81-usb/internal/config"
	"github.com/taoyao-code/pl81-usb/internal/health"
	"github.com/taoyao-code/pl81-usb/internal/httpserver"
	"github.com/taoyao-code/pl81-usb/internal/logging"
	"github.com/taoyao-code/pl81-usb/internal/metrics"
	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
	"github.com/taoyao-code/pl81-usb/internal/relay"
	"github.com/taoyao-code/pl81-usb/internal/serialio"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 PL81_CONFIG 或 configs/example.yaml）")
	devicePath := flag.String("device", "", "真实设备串口路径（覆盖配置；两者都为空时自动探测）")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 指标注册与处理器
	reg := metrics.NewRegistry()
	appMetrics := metrics.NewAppMetrics(reg)
	metricsHandler := metrics.Handler(reg)

	// 4) 解析设备路径与中继配置
	path := cfg.Serial.Path
	if *devicePath != "" {
		path = *devicePath
	}
	if path == "" {
		path, err = serialio.FindPort()
		if err != nil {
			log.Fatal("serial port discovery failed", zap.Error(err))
		}
		log.Info("serial port discovered", zap.String("path", path))
	}

	width, err := neewer.ParseChecksumWidth(cfg.Sniffer.ChecksumWidth)
	if err != nil {
		log.Fatal("invalid sniffer config", zap.Error(err))
	}
	relayCfg := relay.Config{
		CaptureDir:  cfg.Sniffer.CaptureDir,
		BufferSize:  cfg.Sniffer.BufferSize,
		ReadTimeout: cfg.Serial.ReadTimeout,
		Annotate:    cfg.Sniffer.Annotate,
		Width:       width,
		ConsoleEcho: cfg.Sniffer.ConsoleEcho,
	}
	portCfg := serialio.PortConfig{
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		Parity:   cfg.Serial.Parity,
		StopBits: cfg.Serial.StopBits,
	}

	// 5) 打开中继会话
	session, err := relay.Open(path, portCfg, relayCfg, log, appMetrics)
	if err != nil {
		log.Fatal("open relay session failed", zap.Error(err))
	}
	readiness := health.New()
	readiness.SetDeviceReady(true)

	// 虚拟端点路径是外部程序的接入点，必须让操作者一眼看到
	fmt.Printf("virtual endpoint: %s  (device: %s)\n", session.VirtualPath(), session.DevicePath())
	fmt.Printf("capture log: %s\n", session.CapturePath())

	// 6) HTTP 观察面：健康检查 + 指标 + 会话快照
	var httpSrv *httpserver.Server
	if cfg.HTTP.Enable {
		agg := health.NewAggregator(
			health.NewSerialChecker(path),
			health.NewSessionChecker(session),
		)
		if !cfg.Metrics.Enable {
			metricsHandler = nil
		}
		httpSrv = httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readiness.Ready, session.Snapshot, agg)
		go func() {
			if err := httpSrv.Start(); err != nil {
				log.Error("http server error", zap.Error(err))
			}
		}()
	}

	// 7) 运行中继，直到收到信号或会话自行失败
	ctx := context.Background()
	runErr := make(chan error, 1)
	readiness.SetSessionReady(true)
	go func() {
		runErr <- session.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("signal received, stopping relay", zap.String("signal", sig.String()))
		session.Stop()
		if err := <-runErr; err != nil {
			log.Error("relay session error", zap.Error(err))
		}
	case err := <-runErr:
		if err != nil {
			log.Error("relay session failed", zap.Error(err))
		}
	}
	readiness.SetSessionReady(false)

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
}
