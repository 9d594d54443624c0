package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/pl81-usb/internal/capture"
	"github.com/taoyao-code/pl81-usb/internal/metrics"
	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
	"github.com/taoyao-code/pl81-usb/internal/serialio"
)

var (
	// ErrEndpointUnavailable 端点打开失败（设备拔出、路径被占用、PTY 资源耗尽）
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
	// ErrIOFailure 会话运行中端点读写失败，强制会话停止
	ErrIOFailure = errors.New("relay io failure")
	// ErrAlreadyStarted 会话不可重入运行；Stopped 后需新建会话
	ErrAlreadyStarted = errors.New("session already started")
)

// State 会话状态机：Created → Running → Stopped，不可回退
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config 中继会话配置
type Config struct {
	CaptureDir  string
	BufferSize  int           // 单次读取上限
	ReadTimeout time.Duration // 读等待上限，决定关停响应粒度
	Annotate    bool          // 是否对数据块做帧判读注解
	Width       neewer.ChecksumWidth
	ConsoleEcho bool // 捕获转储回显到标准输出
}

func (c *Config) applyDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 100 * time.Millisecond
	}
	if c.Width == 0 {
		c.Width = neewer.Sum16BE
	}
	if c.CaptureDir == "" {
		c.CaptureDir = "captures"
	}
}

// Session 一次透明中继会话
// 两个端点句柄、捕获日志与计数器都归本会话独占；跨会话不共享任何状态
type Session struct {
	id        uuid.UUID
	startedAt time.Time

	client serialio.Endpoint // 虚拟端点，外部程序连接的一侧
	device serialio.Endpoint // 真实设备端点

	cap *capture.Writer
	log *zap.Logger
	m   *metrics.AppMetrics
	cfg Config

	state      int32
	signalOnce sync.Once
	closeOnce  sync.Once
	doneC      chan struct{}

	bytesToDevice  uint64
	bytesToClient  uint64
	chunksToDevice uint64
	chunksToClient uint64
}

// chunkEvent 泵送入中继循环的一次读取结果
type chunkEvent struct {
	dir  capture.Direction
	data []byte
	err  error
}

// Open 建立中继会话：打开真实串口与 PTY 虚拟端点，创建捕获日志
// 任一端点打开失败返回 ErrEndpointUnavailable，不重试
func Open(devicePath string, portCfg serialio.PortConfig, cfg Config, logger *zap.Logger, m *metrics.AppMetrics) (*Session, error) {
	cfg.applyDefaults()

	device, err := serialio.OpenPort(devicePath, portCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: device %s: %v", ErrEndpointUnavailable, devicePath, err)
	}
	client, err := serialio.OpenPTY()
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("%w: virtual endpoint: %v", ErrEndpointUnavailable, err)
	}

	var echo io.Writer
	if cfg.ConsoleEcho {
		echo = os.Stdout
	}
	w, err := capture.NewWriter(cfg.CaptureDir, time.Now(), echo)
	if err != nil {
		client.Close()
		device.Close()
		return nil, err
	}
	return NewSession(client, device, w, cfg, logger, m), nil
}

// NewSession 用已打开的端点装配会话；测试以内存管道端点注入
func NewSession(client, device serialio.Endpoint, w *capture.Writer, cfg Config, logger *zap.Logger, m *metrics.AppMetrics) *Session {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		id:        uuid.New(),
		startedAt: time.Now(),
		client:    client,
		device:    device,
		cap:       w,
		log:       logger,
		m:         m,
		cfg:       cfg,
		doneC:     make(chan struct{}),
	}
	s.setGauge(metrics.SessionCreated)
	return s
}

// ID 会话标识
func (s *Session) ID() uuid.UUID { return s.id }

// State 当前会话状态
func (s *Session) State() State { return State(atomic.LoadInt32(&s.state)) }

// VirtualPath 虚拟端点路径，外部程序以此路径连接
func (s *Session) VirtualPath() string { return s.client.Name() }

// DevicePath 真实设备端点路径
func (s *Session) DevicePath() string { return s.device.Name() }

// CapturePath 捕获日志文件路径
func (s *Session) CapturePath() string {
	if s.cap == nil {
		return ""
	}
	return s.cap.Path()
}

// Run 阻塞运行双向转发循环，直到 Stop、ctx 取消或端点失败
// 只允许从 Created 进入一次；会话停止后不可重启
func (s *Session) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, int32(StateCreated), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	s.setGauge(metrics.SessionRunning)

	s.client.SetReadTimeout(s.cfg.ReadTimeout)
	s.device.SetReadTimeout(s.cfg.ReadTimeout)

	if s.cap != nil {
		s.cap.WriteNote(time.Now(), fmt.Sprintf("session %s started: client=%s device=%s", s.id, s.client.Name(), s.device.Name()))
	}
	s.log.Info("relay running",
		zap.String("session", s.id.String()),
		zap.String("virtual", s.client.Name()),
		zap.String("device", s.device.Name()),
		zap.String("capture", s.CapturePath()),
	)

	// 每端一个读泵；事件通道无缓冲，中继循环单线程串行处理，
	// 捕获日志顺序即真实观测顺序
	events := make(chan chunkEvent)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(s.client, capture.ClientToDevice, events)
	}()
	go func() {
		defer wg.Done()
		s.pump(s.device, capture.DeviceToClient, events)
	}()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-s.doneC:
			break loop
		case ev := <-events:
			if ev.err != nil {
				if s.m != nil {
					s.m.RelayIOErrors.Inc()
				}
				runErr = fmt.Errorf("%w: %s: %v", ErrIOFailure, ev.dir, ev.err)
				break loop
			}
			if err := s.forward(ev); err != nil {
				if s.m != nil {
					s.m.RelayIOErrors.Inc()
				}
				runErr = fmt.Errorf("%w: %s: %v", ErrIOFailure, ev.dir, err)
				break loop
			}
		}
	}

	atomic.StoreInt32(&s.state, int32(StateStopped))
	s.signalOnce.Do(func() { close(s.doneC) })
	s.shutdown()
	wg.Wait()
	if runErr != nil {
		s.log.Error("relay terminated", zap.String("session", s.id.String()), zap.Error(runErr))
	}
	return runErr
}

// pump 单端点读泵：带上限的等待读取，读到即交给中继循环，超时醒来检查关停
func (s *Session) pump(ep serialio.Endpoint, dir capture.Direction, events chan<- chunkEvent) {
	buf := make([]byte, s.cfg.BufferSize)
	for {
		select {
		case <-s.doneC:
			return
		default:
		}
		n, err := ep.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			select {
			case events <- chunkEvent{dir: dir, data: data}:
			case <-s.doneC:
				return
			}
		}
		if err != nil {
			select {
			case events <- chunkEvent{dir: dir, err: err}:
			case <-s.doneC:
			}
			return
		}
	}
}

// forward 记录并原样转发一个数据块：先落捕获日志，再写对端并冲刷
// 块内字节顺序与边界保持原样，不合并不拆分不重排
func (s *Session) forward(ev chunkEvent) error {
	rec := capture.Record{Time: time.Now(), Direction: ev.dir, Data: ev.data}
	if s.cap != nil {
		if err := s.cap.WriteRecord(rec); err != nil {
			// 捕获日志落盘失败不中断转发，但必须让操作者看见
			s.log.Warn("capture write failed", zap.Error(err))
		}
		if s.cfg.Annotate {
			for _, note := range Annotate(ev.data, s.cfg.Width) {
				s.cap.WriteNote(rec.Time, note.Text)
				if s.m != nil {
					result := "ok"
					if !note.ChecksumOK {
						result = "checksum_mismatch"
					}
					s.m.FrameAnnotations.WithLabelValues(result).Inc()
				}
			}
		}
	}

	dst := s.device
	if ev.dir == capture.DeviceToClient {
		dst = s.client
	}
	n, err := dst.Write(ev.data)
	if err != nil {
		return err
	}
	if n < len(ev.data) {
		return io.ErrShortWrite
	}
	if err := dst.Drain(); err != nil {
		return err
	}
	s.count(ev.dir, len(ev.data))
	return nil
}

func (s *Session) count(dir capture.Direction, n int) {
	label := "client_to_device"
	if dir == capture.ClientToDevice {
		atomic.AddUint64(&s.bytesToDevice, uint64(n))
		atomic.AddUint64(&s.chunksToDevice, 1)
	} else {
		label = "device_to_client"
		atomic.AddUint64(&s.bytesToClient, uint64(n))
		atomic.AddUint64(&s.chunksToClient, 1)
	}
	if s.m != nil {
		s.m.RelayBytes.WithLabelValues(label).Add(float64(n))
		s.m.RelayChunks.WithLabelValues(label).Inc()
	}
}

// Stop 幂等停止会话，可从信号处理 goroutine 调用
// Run 在跑则由 Run 完成清理与汇报；会话从未运行则就地清理
func (s *Session) Stop() {
	s.signalOnce.Do(func() { close(s.doneC) })
	if atomic.CompareAndSwapInt32(&s.state, int32(StateCreated), int32(StateStopped)) {
		s.shutdown()
	}
}

// shutdown 关闭端点与捕获日志并汇报最终计数，整个会话只执行一次
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.client.Close()
		s.device.Close()

		toDevice := atomic.LoadUint64(&s.bytesToDevice)
		toClient := atomic.LoadUint64(&s.bytesToClient)
		if s.cap != nil {
			s.cap.WriteNote(time.Now(), fmt.Sprintf("session %s stopped: client→device %d bytes, device→client %d bytes", s.id, toDevice, toClient))
			s.cap.Close()
		}
		s.setGauge(metrics.SessionStopped)
		s.log.Info("relay stopped",
			zap.String("session", s.id.String()),
			zap.Uint64("bytes_to_device", toDevice),
			zap.Uint64("bytes_to_client", toClient),
			zap.Uint64("chunks_to_device", atomic.LoadUint64(&s.chunksToDevice)),
			zap.Uint64("chunks_to_client", atomic.LoadUint64(&s.chunksToClient)),
		)
	})
}

func (s *Session) setGauge(v float64) {
	if s.m != nil {
		s.m.SessionState.Set(v)
	}
}

// Snapshot 会话状态快照，状态接口与就绪检查读取
type Snapshot struct {
	ID             string    `json:"id"`
	State          string    `json:"state"`
	StartedAt      time.Time `json:"startedAt"`
	VirtualPath    string    `json:"virtualPath"`
	DevicePath     string    `json:"devicePath"`
	CapturePath    string    `json:"capturePath"`
	BytesToDevice  uint64    `json:"bytesToDevice"`
	BytesToClient  uint64    `json:"bytesToClient"`
	ChunksToDevice uint64    `json:"chunksToDevice"`
	ChunksToClient uint64    `json:"chunksToClient"`
}

// Snapshot 并发安全地读取当前会话快照
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:             s.id.String(),
		State:          s.State().String(),
		StartedAt:      s.startedAt,
		VirtualPath:    s.client.Name(),
		DevicePath:     s.device.Name(),
		CapturePath:    s.CapturePath(),
		BytesToDevice:  atomic.LoadUint64(&s.bytesToDevice),
		BytesToClient:  atomic.LoadUint64(&s.bytesToClient),
		ChunksToDevice: atomic.LoadUint64(&s.chunksToDevice),
		ChunksToClient: atomic.LoadUint64(&s.chunksToClient),
	}
}
