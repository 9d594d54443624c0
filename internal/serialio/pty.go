package serialio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// PTY 虚拟串行端点：master 侧由本进程读写，slave 路径交给外部程序
// 像打开真实串口一样打开。slave 文件句柄由本端自持到会话结束，
// 否则对端程序关闭后 master 读取会立刻得到 EIO。
type PTY struct {
	ptmx    *os.File
	tty     *os.File
	path    string
	timeout time.Duration
}

// OpenPTY 创建 PTY 对并将终端置为 raw 模式（关闭回显与行缓冲，字节透传）
func OpenPTY() (*PTY, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("set raw mode on %s: %w", tty.Name(), err)
	}
	return &PTY{ptmx: ptmx, tty: tty, path: tty.Name()}, nil
}

// Read 从 master 侧读取对端程序写入的数据
// 超时语义与串口端点一致：到期返回 n=0 且 err=nil
func (p *PTY) Read(b []byte) (int, error) {
	if p.timeout > 0 {
		if err := p.ptmx.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := p.ptmx.Read(b)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, nil
	}
	return n, err
}

func (p *PTY) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

func (p *PTY) Close() error {
	err := p.ptmx.Close()
	if terr := p.tty.Close(); err == nil {
		err = terr
	}
	return err
}

func (p *PTY) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

// Drain PTY master 写入即达对端输入队列，无需冲刷
func (p *PTY) Drain() error {
	return nil
}

// ResetBuffers PTY 无可安全丢弃的缓冲（丢弃即丢失对端已发数据）
func (p *PTY) ResetBuffers() error {
	return nil
}

// Name 返回 slave 端路径，外部程序以此路径连接
func (p *PTY) Name() string {
	return p.path
}
