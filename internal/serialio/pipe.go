package serialio

import (
	"io"
	"sync"
	"time"
)

// PipeEndpoint 进程内端点对的一端，测试中代替真实串口/PTY
// Read 仅限单个 goroutine 调用（与中继模型一致：每端只有一个读泵）
type PipeEndpoint struct {
	name    string
	peer    *PipeEndpoint
	recv    chan []byte
	pending []byte
	timeout time.Duration
	state   *pipeState
}

type pipeState struct {
	once sync.Once
	done chan struct{}
}

func (s *pipeState) close() {
	s.once.Do(func() { close(s.done) })
}

// Pipe 创建互联的端点对：一端写入的数据从另一端读出
func Pipe() (*PipeEndpoint, *PipeEndpoint) {
	state := &pipeState{done: make(chan struct{})}
	a := &PipeEndpoint{name: "pipe-a", recv: make(chan []byte, 64), state: state}
	b := &PipeEndpoint{name: "pipe-b", recv: make(chan []byte, 64), state: state}
	a.peer, b.peer = b, a
	return a, b
}

func (p *PipeEndpoint) Read(b []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	var timer <-chan time.Time
	if p.timeout > 0 {
		t := time.NewTimer(p.timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case chunk := <-p.recv:
		n := copy(b, chunk)
		p.pending = chunk[n:]
		return n, nil
	case <-p.state.done:
		// 关闭前已送达的数据仍需交付
		select {
		case chunk := <-p.recv:
			n := copy(b, chunk)
			p.pending = chunk[n:]
			return n, nil
		default:
			return 0, io.EOF
		}
	case <-timer:
		return 0, nil
	}
}

func (p *PipeEndpoint) Write(b []byte) (int, error) {
	select {
	case <-p.state.done:
		return 0, io.ErrClosedPipe
	default:
	}
	chunk := append([]byte(nil), b...)
	select {
	case p.peer.recv <- chunk:
		return len(b), nil
	case <-p.state.done:
		return 0, io.ErrClosedPipe
	}
}

func (p *PipeEndpoint) Close() error {
	p.state.close()
	return nil
}

func (p *PipeEndpoint) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func (p *PipeEndpoint) Drain() error {
	return nil
}

func (p *PipeEndpoint) ResetBuffers() error {
	p.pending = nil
	for {
		select {
		case <-p.recv:
		default:
			return nil
		}
	}
}

func (p *PipeEndpoint) Name() string {
	return p.name
}
