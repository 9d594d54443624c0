package neewer

import "encoding/binary"

// 色温映射常量：字节码 0x00-0x12 线性对应 2900K-7000K
const (
	TempMinK  = 2900
	TempMaxK  = 7000
	TempSteps = 18 // 0x00 = 2900K，0x12 = 7000K
)

// KelvinToByte 色温(K)转协议字节码，四舍五入到最近档位
// 越界输入钳位到边界（如 1000K → 2900K 对应的 0x00）
func KelvinToByte(kelvin int) byte {
	if kelvin < TempMinK {
		kelvin = TempMinK
	}
	if kelvin > TempMaxK {
		kelvin = TempMaxK
	}
	span := TempMaxK - TempMinK
	step := ((kelvin-TempMinK)*TempSteps + span/2) / span
	if step > TempSteps {
		step = TempSteps
	}
	return byte(step)
}

// ByteToKelvin 协议字节码转色温(K)，码值超过 0x12 钳位到 7000K
func ByteToKelvin(b byte) int {
	v := int(b)
	if v > TempSteps {
		v = TempSteps
	}
	return TempMinK + (v*(TempMaxK-TempMinK)+TempSteps/2)/TempSteps
}

// CCTCommand 构造 CCT 设置命令：亮度 0-100，色温 2900K-7000K
// 帧形如 3A 02 03 01 <bri> <temp> + 16位大端校验和，共8字节
func CCTCommand(brightness, kelvin int) []byte {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}
	return Encode(PrefixUSB, TagCCT, []byte{ModeCCT, byte(brightness), KelvinToByte(kelvin)}, Sum16BE)
}

// PowerOn 构造开机命令：3A 06 01 01 00 42
func PowerOn() []byte {
	return Encode(PrefixUSB, TagPower, []byte{PowerOnArg}, Sum16BE)
}

// PowerOff 构造关机命令：3A 06 01 02 00 43
func PowerOff() []byte {
	return Encode(PrefixUSB, TagPower, []byte{PowerOffArg}, Sum16BE)
}

// Status 设备状态帧解析结果
type Status struct {
	Mode       byte // 工作模式位，CCT 模式下为 0x01
	Brightness byte // 亮度 0-100
	TempByte   byte // 色温字节码 0x00-0x12
}

// Kelvin 状态中的色温字节码换算为开尔文
func (s Status) Kelvin() int {
	return ByteToKelvin(s.TempByte)
}

// StatusFromFrame 从解码出的帧提取设备状态
// 仅接受校验通过、payload 完整的 CCT 帧
func StatusFromFrame(f *Frame) (Status, bool) {
	if f == nil || !f.IsCCT() || !f.ChecksumValid || len(f.Payload) < 3 {
		return Status{}, false
	}
	return Status{Mode: f.Payload[0], Brightness: f.Payload[1], TempByte: f.Payload[2]}, true
}

// ParseStatus 解析固定8字节状态帧 3A 02 03 <mode> <bri> <temp> <cs_hi> <cs_lo>
// 校验和为前6字节的16位大端累加和；形状或校验不符返回 false
func ParseStatus(raw []byte) (Status, bool) {
	if len(raw) < StatusLen || raw[0] != PrefixUSB || raw[1] != TagCCT {
		return Status{}, false
	}
	want := Checksum(raw[:6], Sum16BE)
	got := binary.BigEndian.Uint16(raw[6:8])
	if got != want {
		return Status{}, false
	}
	return Status{Mode: raw[3], Brightness: raw[4], TempByte: raw[5]}, true
}
