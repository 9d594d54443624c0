package serialio

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// PortConfig 串口参数，零值字段回落到设备默认的 115200 8N1
type PortConfig struct {
	BaudRate int
	DataBits int
	Parity   string // none | odd | even
	StopBits int    // 1 | 2
}

// Port 真实串口端点，封装 go.bug.st/serial
type Port struct {
	port serial.Port
	path string
}

// OpenPort 打开真实串口并清空两侧缓冲
func OpenPort(path string, cfg PortConfig) (*Port, error) {
	mode, err := buildMode(cfg)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	sp := &Port{port: p, path: path}
	if err := sp.ResetBuffers(); err != nil {
		p.Close()
		return nil, fmt.Errorf("reset buffers %s: %w", path, err)
	}
	return sp, nil
}

func buildMode(cfg PortConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	switch cfg.Parity {
	case "", "none":
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unknown parity %q", cfg.Parity)
	}
	switch cfg.StopBits {
	case 0, 1:
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unknown stop bits %d", cfg.StopBits)
	}
	return mode, nil
}

func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *Port) Close() error {
	return p.port.Close()
}

func (p *Port) SetReadTimeout(d time.Duration) error {
	return p.port.SetReadTimeout(d)
}

func (p *Port) Drain() error {
	return p.port.Drain()
}

// ResetBuffers 丢弃输入输出两个方向的未处理数据
func (p *Port) ResetBuffers() error {
	if err := p.port.ResetInputBuffer(); err != nil {
		return err
	}
	return p.port.ResetOutputBuffer()
}

func (p *Port) Name() string {
	return p.path
}
