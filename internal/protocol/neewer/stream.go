package neewer

import "bytes"

// StreamDecoder 处理半包/粘包的流式解码器
// 在字节流中同步 0x3A 前缀：先按声明长度切帧并校验，不成再按固定8字节
// 状态帧切取（部分固件 len 字段不可信），两种取法都失败则滑动1字节重新同步
type StreamDecoder struct {
	buf         []byte
	width       ChecksumWidth
	maxBuffered int // 保护上限，避免乱流占用过多内存
}

// NewStreamDecoder 创建流式解码器
func NewStreamDecoder(w ChecksumWidth, maxBuffered int) *StreamDecoder {
	if maxBuffered <= 0 {
		maxBuffered = 512 // 观测最大帧约256字节，这里放宽一倍
	}
	return &StreamDecoder{width: w, maxBuffered: maxBuffered}
}

// Feed 追加数据并尽可能解出多帧
// 校验和不匹配的字节段不会作为帧返回，只会被滑动跳过；调用方看不到
// 的残余字节保留在缓冲中等待后续数据补齐
func (d *StreamDecoder) Feed(p []byte) []*Frame {
	if len(p) == 0 {
		return nil
	}
	d.buf = append(d.buf, p...)
	var frames []*Frame

	for {
		start := bytes.IndexByte(d.buf, PrefixUSB)
		if start < 0 {
			// 无前缀，清空缓冲避免无界增长
			d.buf = d.buf[:0]
			return frames
		}
		if start > 0 {
			// 丢弃无效前导
			d.buf = d.buf[start:]
		}
		if len(d.buf) < 3 {
			// 帧头未凑齐
			return frames
		}

		// 按声明长度切帧
		declared := 3 + int(d.buf[2]) + d.width.Size()
		if declared <= d.maxBuffered && len(d.buf) >= declared {
			if f, err := Decode(d.buf[:declared], d.width); err == nil && f.ChecksumValid {
				frames = append(frames, f)
				d.buf = d.buf[declared:]
				continue
			}
		}
		// 声明长度不可信时退回固定8字节状态帧
		if len(d.buf) >= StatusLen {
			if f, err := Decode(d.buf[:StatusLen], Sum16BE); err == nil && f.ChecksumValid && f.Tag == TagCCT {
				frames = append(frames, f)
				d.buf = d.buf[StatusLen:]
				continue
			}
		}

		// 数据未凑齐则等待更多字节，否则滑动1字节继续同步
		if (declared <= d.maxBuffered && len(d.buf) < declared) || len(d.buf) < StatusLen {
			return frames
		}
		d.buf = d.buf[1:]
	}
}
