package neewer

// Checksum 计算累加校验和
// 对所有字节求算术和后按宽度截断：Sum8 取低8位，Sum16BE 取低16位
func Checksum(data []byte, w ChecksumWidth) uint16 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	if w == Sum8 {
		return uint16(sum & 0xFF)
	}
	return uint16(sum & 0xFFFF)
}

// AppendChecksum 计算 buf 的校验和并按宽度追加到末尾
// Sum16BE 按大端排列：高字节在前
func AppendChecksum(buf []byte, w ChecksumWidth) []byte {
	sum := Checksum(buf, w)
	if w == Sum8 {
		return append(buf, byte(sum))
	}
	return append(buf, byte(sum>>8), byte(sum))
}
