package relay

import (
	"fmt"
	"strings"

	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
)

// FrameNote 对一个帧的可读判读
type FrameNote struct {
	Text       string
	ChecksumOK bool
}

// Annotate 对单个数据块做帧判读，生成捕获日志的注解行
// 判读按块独立进行，不跨块攒字节：中继是透明转发器，不是重组器
// 块恰为一帧（按声明长度或固定8字节状态帧）时直接判读，校验失败也标注；
// 多帧粘连的块逐帧提取，只注解校验通过的帧；无法解释的块不产生注解
func Annotate(chunk []byte, w neewer.ChecksumWidth) []FrameNote {
	if len(chunk) < 3+w.Size() {
		return nil
	}
	if chunk[0] != neewer.PrefixUSB && chunk[0] != neewer.PrefixBLE {
		return nil
	}

	declared := 3 + int(chunk[2]) + w.Size()
	if declared == len(chunk) || len(chunk) == neewer.StatusLen {
		f, err := neewer.Decode(chunk, w)
		if err != nil {
			return nil
		}
		// 8位宽度下设备状态帧仍按16位大端回读校验
		if !f.ChecksumValid && len(chunk) == neewer.StatusLen && w != neewer.Sum16BE {
			if alt, aerr := neewer.Decode(chunk, neewer.Sum16BE); aerr == nil && alt.ChecksumValid && alt.IsCCT() {
				f = alt
			}
		}
		return []FrameNote{describe(f)}
	}

	dec := neewer.NewStreamDecoder(w, len(chunk)+neewer.StatusLen)
	var notes []FrameNote
	for _, f := range dec.Feed(chunk) {
		notes = append(notes, describe(f))
	}
	return notes
}

// describe 把一帧翻译成人类可读的一行
func describe(f *neewer.Frame) FrameNote {
	var b strings.Builder
	switch {
	case f.IsCCT() && len(f.Payload) >= 3:
		fmt.Fprintf(&b, "frame cct/status mode=0x%02X bri=%d temp=0x%02X (%dK)",
			f.Payload[0], f.Payload[1], f.Payload[2], neewer.ByteToKelvin(f.Payload[2]))
	case f.IsPower() && len(f.Payload) >= 1:
		switch f.Payload[0] {
		case neewer.PowerOnArg:
			b.WriteString("frame power on")
		case neewer.PowerOffArg:
			b.WriteString("frame power off")
		default:
			fmt.Fprintf(&b, "frame power arg=0x%02X", f.Payload[0])
		}
	default:
		fmt.Fprintf(&b, "frame prefix=0x%02X tag=0x%02X payload=[% 02X]", f.Prefix, f.Tag, f.Payload)
	}
	if f.LengthMismatch() {
		fmt.Fprintf(&b, " declared-len=%d actual=%d", f.Length, len(f.Payload))
	}
	if f.ChecksumValid {
		b.WriteString(" | checksum ok")
	} else {
		digits := f.Width.Size() * 2
		fmt.Fprintf(&b, " | checksum MISMATCH got=0x%0*X want=0x%0*X",
			digits, f.Checksum, digits, expectedChecksum(f))
	}
	return FrameNote{Text: b.String(), ChecksumOK: f.ChecksumValid}
}

// expectedChecksum 按帧自身字段重算校验和
func expectedChecksum(f *neewer.Frame) uint16 {
	body := make([]byte, 0, 3+len(f.Payload))
	body = append(body, f.Prefix, f.Tag, f.Length)
	body = append(body, f.Payload...)
	return neewer.Checksum(body, f.Width)
}
