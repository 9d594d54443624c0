package neewer

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrShortFrame 数据不足以容纳最小帧头+校验和
	ErrShortFrame = errors.New("frame too short")
)

// Decode 解析一帧并标注校验结果
// 说明：payload 按原始数据实际切分，声明长度字段 raw[2] 独立保存，
// 两者不一致时不视为错误（部分固件的 len 字段并非真实长度）。
// 校验和不匹配同样不报错，以 ChecksumValid=false 标注，供人工判断。
func Decode(raw []byte, w ChecksumWidth) (*Frame, error) {
	if len(raw) < 3+w.Size() {
		return nil, ErrShortFrame
	}
	body := raw[:len(raw)-w.Size()]
	var got uint16
	if w == Sum8 {
		got = uint16(raw[len(raw)-1])
	} else {
		got = binary.BigEndian.Uint16(raw[len(raw)-2:])
	}
	f := &Frame{
		Prefix:   raw[0],
		Tag:      raw[1],
		Length:   raw[2],
		Payload:  append([]byte(nil), raw[3:len(raw)-w.Size()]...),
		Checksum: got,
		Width:    w,
	}
	f.ChecksumValid = got == Checksum(body, w)
	return f, nil
}
