package neewer

// Encode 构造一帧命令（与 Decode 对应）
// 布局：[prefix, tag, len(payload)] + payload + checksum
// 零长度 payload 合法（如裸电源命令的探测变体）；单字节字段越界属调用方错误
func Encode(prefix, tag byte, payload []byte, w ChecksumWidth) []byte {
	buf := make([]byte, 0, 3+len(payload)+w.Size())
	buf = append(buf, prefix, tag, byte(len(payload)))
	buf = append(buf, payload...)
	return AppendChecksum(buf, w)
}
