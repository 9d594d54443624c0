package capture

import (
	"fmt"
	"strings"
	"time"
)

// Direction 一次传输的方向
type Direction string

const (
	ClientToDevice Direction = "client→device"
	DeviceToClient Direction = "device→client"
)

// Record 一次传输事件：时间戳、方向、原始字节
// 读取发生的那一刻创建，之后不可变；只追加，不修改不删除
type Record struct {
	Time      time.Time
	Direction Direction
	Data      []byte
}

// Header 记录头行，形如 [15:04:05.123] client→device (8 bytes)
func (r Record) Header() string {
	return fmt.Sprintf("[%s] %s (%d bytes)", r.Time.Format("15:04:05.000"), r.Direction, len(r.Data))
}

// Dump 十六进制+ASCII 转储，每行16字节：
// <prefix>0000  3a 02 03 01 64 09 00 ad                          :...d...
// 每行以换行符结尾；空数据返回空串
func Dump(data []byte, prefix string) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		chunk := data[i:]
		if len(chunk) > 16 {
			chunk = chunk[:16]
		}
		var hexPart strings.Builder
		var asciiPart strings.Builder
		for j, c := range chunk {
			if j > 0 {
				hexPart.WriteByte(' ')
			}
			fmt.Fprintf(&hexPart, "%02x", c)
			if c >= 32 && c < 127 {
				asciiPart.WriteByte(c)
			} else {
				asciiPart.WriteByte('.')
			}
		}
		fmt.Fprintf(&b, "%s%04x  %-48s  %s\n", prefix, i, hexPart.String(), asciiPart.String())
	}
	return b.String()
}
