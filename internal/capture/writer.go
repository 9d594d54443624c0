package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Writer 捕获日志写入器：逐条追加到会话日志文件，可同时回显到控制台
// 仅由中继循环单线程调用，写入顺序即观测顺序，不加锁
type Writer struct {
	file *os.File
	echo io.Writer // nil 时不回显
	path string
}

// NewWriter 在 dir 下按会话开始时间创建日志文件 capture_YYYYMMDD_HHMMSS.log
func NewWriter(dir string, start time.Time, echo io.Writer) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("capture_%s.log", start.Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open capture log %s: %w", path, err)
	}
	return &Writer{file: f, echo: echo, path: path}, nil
}

// WriteRecord 写入一条传输记录：头行 + 十六进制转储
func (w *Writer) WriteRecord(r Record) error {
	var b strings.Builder
	b.WriteString(r.Header())
	b.WriteByte('\n')
	b.WriteString(Dump(r.Data, "  "))
	return w.writeText(b.String())
}

// WriteNote 写入一条带时间戳的说明行（帧注解、会话事件）
func (w *Writer) WriteNote(t time.Time, msg string) error {
	return w.writeText(fmt.Sprintf("[%s] %s\n", t.Format("15:04:05.000"), msg))
}

func (w *Writer) writeText(s string) error {
	if w.echo != nil {
		io.WriteString(w.echo, s)
	}
	if _, err := w.file.WriteString(s); err != nil {
		return fmt.Errorf("write capture log: %w", err)
	}
	return nil
}

// Path 日志文件路径
func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Close() error {
	return w.file.Close()
}
