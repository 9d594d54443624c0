package neewer

import (
	"bytes"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		width    ChecksumWidth
		expected uint16
	}{
		{
			name:     "空数据8位",
			data:     []byte{},
			width:    Sum8,
			expected: 0x00,
		},
		{
			name:     "单字节8位",
			data:     []byte{0xAA},
			width:    Sum8,
			expected: 0xAA,
		},
		{
			name:     "8位溢出截断",
			data:     []byte{0xAA, 0xAA},
			width:    Sum8,
			expected: 0x54, // 0xAA + 0xAA = 0x154，取低8位
		},
		{
			name:     "16位保留进位",
			data:     []byte{0xAA, 0xAA},
			width:    Sum16BE,
			expected: 0x0154,
		},
		{
			name:     "CCT命令前6字节",
			data:     []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09},
			width:    Sum16BE,
			expected: 0x00AD,
		},
		{
			name:     "CCT命令前6字节8位",
			data:     []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09},
			width:    Sum8,
			expected: 0xAD,
		},
		{
			name:     "开机命令前4字节",
			data:     []byte{0x3A, 0x06, 0x01, 0x01},
			width:    Sum16BE,
			expected: 0x0042,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Checksum(tt.data, tt.width)
			if result != tt.expected {
				t.Errorf("Checksum() = 0x%04X, expected 0x%04X", result, tt.expected)
			}
		})
	}
}

func TestAppendChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		width    ChecksumWidth
		expected []byte
	}{
		{
			name:     "8位追加单字节",
			data:     []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09},
			width:    Sum8,
			expected: []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09, 0xAD},
		},
		{
			name:     "16位大端高字节在前",
			data:     []byte{0x3A, 0x06, 0x01, 0x01},
			width:    Sum16BE,
			expected: []byte{0x3A, 0x06, 0x01, 0x01, 0x00, 0x42},
		},
		{
			name:     "16位进位写入高字节",
			data:     []byte{0xFF, 0xFF, 0xFF},
			width:    Sum16BE,
			expected: []byte{0xFF, 0xFF, 0xFF, 0x02, 0xFD},
		},
		{
			name:     "空数据",
			data:     []byte{},
			width:    Sum8,
			expected: []byte{0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AppendChecksum(append([]byte(nil), tt.data...), tt.width)
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("AppendChecksum() = % X, expected % X", result, tt.expected)
			}
		})
	}
}

func TestParseChecksumWidth(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ChecksumWidth
		wantErr bool
	}{
		{name: "sum8", in: "sum8", want: Sum8},
		{name: "sum16be", in: "sum16be", want: Sum16BE},
		{name: "空串默认16位", in: "", want: Sum16BE},
		{name: "未知名称", in: "crc16", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChecksumWidth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChecksumWidth(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseChecksumWidth(%q) = %v, expected %v", tt.in, got, tt.want)
			}
		})
	}
}
