package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
)

func TestAnnotateSingleFrames(t *testing.T) {
	tests := []struct {
		name     string
		chunk    []byte
		width    neewer.ChecksumWidth
		wantText string
		wantOK   bool
	}{
		{
			name:     "CCT设置命令",
			chunk:    []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09, 0x00, 0xAD},
			width:    neewer.Sum16BE,
			wantText: "frame cct/status mode=0x01 bri=100 temp=0x09 (4950K) | checksum ok",
			wantOK:   true,
		},
		{
			name:     "开机命令",
			chunk:    []byte{0x3A, 0x06, 0x01, 0x01, 0x00, 0x42},
			width:    neewer.Sum16BE,
			wantText: "frame power on | checksum ok",
			wantOK:   true,
		},
		{
			name:     "关机命令",
			chunk:    []byte{0x3A, 0x06, 0x01, 0x02, 0x00, 0x43},
			width:    neewer.Sum16BE,
			wantText: "frame power off | checksum ok",
			wantOK:   true,
		},
		{
			name:     "校验和损坏",
			chunk:    []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09, 0x00, 0xFF},
			width:    neewer.Sum16BE,
			wantText: "frame cct/status mode=0x01 bri=100 temp=0x09 (4950K) | checksum MISMATCH got=0x00FF want=0x00AD",
			wantOK:   false,
		},
		{
			name:     "BLE风格8位校验探测帧",
			chunk:    []byte{0x78, 0x81, 0x01, 0x01, 0xFB},
			width:    neewer.Sum8,
			wantText: "frame prefix=0x78 tag=0x81 payload=[01] | checksum ok",
			wantOK:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := Annotate(tt.chunk, tt.width)
			require.Len(t, notes, 1)
			assert.Equal(t, tt.wantText, notes[0].Text)
			assert.Equal(t, tt.wantOK, notes[0].ChecksumOK)
		})
	}
}

func TestAnnotateBurstChunk(t *testing.T) {
	chunk := append(neewer.PowerOn(), neewer.CCTCommand(50, 7000)...)
	notes := Annotate(chunk, neewer.Sum16BE)
	require.Len(t, notes, 2)
	assert.Equal(t, "frame power on | checksum ok", notes[0].Text)
	assert.Contains(t, notes[1].Text, "bri=50 temp=0x12 (7000K)")
	assert.True(t, notes[0].ChecksumOK)
	assert.True(t, notes[1].ChecksumOK)
}

func TestAnnotateBurstSkipsCorrupted(t *testing.T) {
	bad := append([]byte(nil), neewer.PowerOn()...)
	bad[5] = 0x43
	chunk := append(bad, neewer.PowerOff()...)

	// 粘连块中只有校验通过的帧产生注解
	notes := Annotate(chunk, neewer.Sum16BE)
	require.Len(t, notes, 1)
	assert.Equal(t, "frame power off | checksum ok", notes[0].Text)
}

func TestAnnotateLyingLengthStatus(t *testing.T) {
	// len 字段声明5，实际 payload 3：按固定8字节状态帧判读并标注差异
	chunk := []byte{0x3A, 0x02, 0x05, 0x01, 0x32, 0x09, 0x00, 0x7D}
	notes := Annotate(chunk, neewer.Sum16BE)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].ChecksumOK)
	assert.Contains(t, notes[0].Text, "declared-len=5 actual=3")
}

func TestAnnotateStatusUnderSum8(t *testing.T) {
	// 8位宽度会话里设备状态帧同样可判读：cs 高字节恒为 0x00，
	// 前7字节的8位累加和与16位大端校验的低字节一致
	status := []byte{0x3A, 0x02, 0x03, 0x01, 0x32, 0x09, 0x00, 0x7B}
	notes := Annotate(status, neewer.Sum8)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].ChecksumOK)
	assert.Contains(t, notes[0].Text, "bri=50 temp=0x09 (4950K)")
	assert.Contains(t, notes[0].Text, "declared-len=3 actual=4")
}

func TestAnnotateUnrecognizedChunk(t *testing.T) {
	assert.Nil(t, Annotate([]byte{0xDE, 0xAD, 0xBE, 0xEF}, neewer.Sum16BE))
	assert.Nil(t, Annotate(nil, neewer.Sum16BE))
	assert.Nil(t, Annotate([]byte{0x3A, 0x02}, neewer.Sum16BE))
}
