package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/pl81-usb/internal/metrics"
	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
	"github.com/taoyao-code/pl81-usb/internal/serialio"
)

// ErrNoStatus 等待窗口内未收到可解析的状态帧
var ErrNoStatus = errors.New("no status frame received")

// Config 控制客户端配置
type Config struct {
	MinInterval  time.Duration // 相邻命令的最小间隔，避免灯具固件吃不消
	ResponseWait time.Duration // 命令后收集状态回报的窗口
}

func (c *Config) applyDefaults() {
	if c.MinInterval <= 0 {
		c.MinInterval = 100 * time.Millisecond
	}
	if c.ResponseWait <= 0 {
		c.ResponseWait = 300 * time.Millisecond
	}
}

// Client 直连灯具的控制客户端：构帧、限速写入、回读状态
// 非并发安全，一个客户端同一时刻只服务一个调用方
type Client struct {
	ep      serialio.Endpoint
	limiter *rate.Limiter
	cfg     Config
	log     *zap.Logger
	m       *metrics.AppMetrics
	dec     *neewer.StreamDecoder
}

// Dial 打开串口并装配控制客户端
func Dial(path string, portCfg serialio.PortConfig, cfg Config, logger *zap.Logger, m *metrics.AppMetrics) (*Client, error) {
	ep, err := serialio.OpenPort(path, portCfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return NewClient(ep, cfg, logger, m), nil
}

// NewClient 用已打开的端点装配客户端；测试以内存管道端点注入
func NewClient(ep serialio.Endpoint, cfg Config, logger *zap.Logger, m *metrics.AppMetrics) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		ep:      ep,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		cfg:     cfg,
		log:     logger,
		m:       m,
		// 真实设备的命令与状态回报均为16位大端校验
		dec: neewer.NewStreamDecoder(neewer.Sum16BE, 0),
	}
}

// SetCCT 设置亮度与色温，随后收集设备的状态回报
// 设备不回报时返回 nil 状态，不视为错误
func (c *Client) SetCCT(ctx context.Context, brightness, kelvin int) (*neewer.Status, error) {
	if err := c.send(ctx, "set_cct", neewer.CCTCommand(brightness, kelvin)); err != nil {
		return nil, err
	}
	return c.collect(ctx, c.cfg.ResponseWait), nil
}

// PowerOn 开灯
func (c *Client) PowerOn(ctx context.Context) error {
	return c.send(ctx, "power_on", neewer.PowerOn())
}

// PowerOff 关灯
func (c *Client) PowerOff(ctx context.Context) error {
	return c.send(ctx, "power_off", neewer.PowerOff())
}

// ReadStatus 被动监听设备状态回报，窗口内取最新一条
// 设备只在状态变化时上报，窗口内无回报返回 ErrNoStatus
func (c *Client) ReadStatus(ctx context.Context) (neewer.Status, error) {
	c.countOp("read_status")
	st := c.collect(ctx, c.cfg.ResponseWait)
	if st == nil {
		return neewer.Status{}, ErrNoStatus
	}
	return *st, nil
}

// send 限速后整帧写入并冲刷
func (c *Client) send(ctx context.Context, op string, frame []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	n, err := c.ep.Write(frame)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n < len(frame) {
		return fmt.Errorf("%s: %w", op, io.ErrShortWrite)
	}
	if err := c.ep.Drain(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.countOp(op)
	c.log.Debug("command sent", zap.String("op", op), zap.String("frame", fmt.Sprintf("% X", frame)))
	return nil
}

// collect 在窗口内读取并流式解码，返回观测到的最新状态
func (c *Client) collect(ctx context.Context, window time.Duration) *neewer.Status {
	deadline := time.Now().Add(window)
	c.ep.SetReadTimeout(50 * time.Millisecond)
	buf := make([]byte, 256)
	var latest *neewer.Status
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		n, err := c.ep.Read(buf)
		if err != nil {
			break
		}
		if n == 0 {
			continue
		}
		for _, f := range c.dec.Feed(buf[:n]) {
			if st, ok := neewer.StatusFromFrame(f); ok {
				s := st
				latest = &s
			}
		}
	}
	return latest
}

func (c *Client) countOp(op string) {
	if c.m != nil {
		c.m.ControlCommands.WithLabelValues(op).Inc()
	}
}

// Close 关闭底层端点
func (c *Client) Close() error {
	return c.ep.Close()
}
