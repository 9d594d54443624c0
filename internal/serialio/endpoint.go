package serialio

import (
	"io"
	"time"
)

// Endpoint 抽象串行字节流端点，真实串口与 PTY 虚拟端点共用此接口
// Read 的超时语义与 go.bug.st/serial 对齐：超时返回 n=0 且 err=nil，
// 调用方据此区分"无数据"与真正的 I/O 失败
type Endpoint interface {
	io.ReadWriteCloser

	// SetReadTimeout 设定单次 Read 的最长阻塞时间，0 表示无限等待
	SetReadTimeout(d time.Duration) error

	// Drain 等待已写入的数据真正送出
	Drain() error

	// ResetBuffers 丢弃两个方向未处理的缓冲数据
	ResetBuffers() error

	// Name 端点的可读路径标识（串口路径或 PTY 从端路径）
	Name() string
}
