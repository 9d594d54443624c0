package neewer

import "fmt"

// Frame PL81-Pro 命令/状态帧结构
// 格式：prefix(1) + tag(1) + len(1) + payload(var) + checksum(1或2)
// 校验和为前序所有字节的累加和，按宽度截断：8位取低8位，16位取低16位大端排列
type Frame struct {
	Prefix        byte          // 0x3A (USB 串口) 或 0x78 (旧版 BLE 风格)
	Tag           byte          // 操作选择：0x02-CCT/状态，0x06-电源
	Length        byte          // 声明的 payload 长度（与实际长度可能不一致，独立保存）
	Payload       []byte        // 数据载荷
	Checksum      uint16        // 接收到的校验和（8位变体存于低字节）
	ChecksumValid bool          // 校验和是否匹配；不匹配仅标注，不视为错误
	Width         ChecksumWidth // 该帧使用的校验和宽度
}

// 帧常量（来自 USB 抓包与固件反汇编的稳定子集）
const (
	PrefixUSB = 0x3A // USB 串口帧前缀
	PrefixBLE = 0x78 // 旧版 BLE 风格探测帧前缀

	TagCCT   = 0x02 // CCT 设置 / 状态上报
	TagPower = 0x06 // 电源开关

	ModeCCT     = 0x01 // CCT 命令 payload 首字节固定模式位
	PowerOnArg  = 0x01 // 电源 payload：开
	PowerOffArg = 0x02 // 电源 payload：关

	StatusLen = 8 // 设备状态帧固定长度
)

// IsCCT 判断是否为 CCT 设置/状态帧
func (f *Frame) IsCCT() bool {
	return f.Tag == TagCCT
}

// IsPower 判断是否为电源帧
func (f *Frame) IsPower() bool {
	return f.Tag == TagPower
}

// LengthMismatch 声明长度与实际 payload 长度是否不一致
// 部分固件的 len 字段并非真实长度，解码时两者独立上报
func (f *Frame) LengthMismatch() bool {
	return int(f.Length) != len(f.Payload)
}

// ChecksumWidth 校验和宽度，取值即占用字节数
type ChecksumWidth uint8

const (
	Sum8    ChecksumWidth = 1 // 低8位累加和，单字节
	Sum16BE ChecksumWidth = 2 // 低16位累加和，大端双字节
)

// Size 校验和占用的字节数
func (w ChecksumWidth) Size() int {
	return int(w)
}

func (w ChecksumWidth) String() string {
	switch w {
	case Sum8:
		return "sum8"
	case Sum16BE:
		return "sum16be"
	default:
		return fmt.Sprintf("checksum-width(%d)", int(w))
	}
}

// ParseChecksumWidth 解析配置中的校验和宽度名称
func ParseChecksumWidth(s string) (ChecksumWidth, error) {
	switch s {
	case "sum8":
		return Sum8, nil
	case "sum16be", "":
		return Sum16BE, nil
	default:
		return 0, fmt.Errorf("unknown checksum width %q", s)
	}
}
