package probe

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/pl81-usb/internal/metrics"
	"github.com/taoyao-code/pl81-usb/internal/serialio"
)

// Config 探测执行配置
type Config struct {
	Dwell        time.Duration // 步骤未指定时的默认观察窗口
	ResponseWait time.Duration // 回包读取窗口
}

func (c *Config) applyDefaults() {
	if c.Dwell <= 0 {
		c.Dwell = 500 * time.Millisecond
	}
	if c.ResponseWait <= 0 {
		c.ResponseWait = 300 * time.Millisecond
	}
}

// Runner 串口探测执行器：照计划逐波特率发射命令帧并记录回包
// 命令是否生效靠操作者盯着面板判断，程序只负责发帧与记录
type Runner struct {
	plan *Plan
	cfg  Config
	log  *zap.Logger
	m    *metrics.AppMetrics
}

// NewRunner 创建探测执行器
func NewRunner(plan *Plan, cfg Config, logger *zap.Logger, m *metrics.AppMetrics) *Runner {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{plan: plan, cfg: cfg, log: logger, m: m}
}

// Run 对指定串口执行整个计划
func (r *Runner) Run(ctx context.Context, portPath string) error {
	for _, baud := range r.plan.Bauds() {
		ep, err := serialio.OpenPort(portPath, serialio.PortConfig{BaudRate: baud})
		if err != nil {
			return fmt.Errorf("open %s @%d: %w", portPath, baud, err)
		}
		err = r.RunSteps(ctx, ep, baud)
		ep.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// RunSteps 对已打开的端点执行全部步骤；测试以内存管道端点注入
func (r *Runner) RunSteps(ctx context.Context, ep serialio.Endpoint, baud int) error {
	// 兜底限速：计划把 dwell 全配成零也不致打爆设备
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	for i, step := range r.plan.Steps {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		frame, err := step.Frame()
		if err != nil {
			return err
		}

		// 写前清掉残留回包，回包窗口里读到的才算本步的
		ep.ResetBuffers()
		n, werr := ep.Write(frame)
		if werr == nil && n < len(frame) {
			werr = io.ErrShortWrite
		}
		if werr == nil {
			werr = ep.Drain()
		}
		if werr != nil {
			r.countWrite("error")
			return fmt.Errorf("step %q: %w", step.Label, werr)
		}
		r.countWrite("ok")

		dwell := step.Dwell.Duration
		if dwell <= 0 {
			dwell = r.cfg.Dwell
		}
		if err := sleepCtx(ctx, dwell); err != nil {
			return err
		}

		r.log.Info("probe step",
			zap.Int("baud", baud),
			zap.Int("step", i+1),
			zap.String("label", step.Label),
			zap.String("frame", fmt.Sprintf("% X", frame)),
			zap.String("resp", r.readResponse(ep)),
		)
	}
	return nil
}

// readResponse 读取观察窗口内到达的回包字节
func (r *Runner) readResponse(ep serialio.Endpoint) string {
	ep.SetReadTimeout(r.cfg.ResponseWait)
	buf := make([]byte, 256)
	n, err := ep.Read(buf)
	if err != nil || n == 0 {
		return "(none)"
	}
	return fmt.Sprintf("% X", buf[:n])
}

func (r *Runner) countWrite(result string) {
	if r.m != nil {
		r.m.ProbeWrites.WithLabelValues(result).Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
