package neewer

import (
	"bytes"
	"testing"
)

func TestStreamDecoder_SingleFrame(t *testing.T) {
	d := NewStreamDecoder(Sum16BE, 0)
	frames := d.Feed(CCTCommand(100, 4950))
	if len(frames) != 1 {
		t.Fatalf("frames = %d, expected 1", len(frames))
	}
	f := frames[0]
	if !f.IsCCT() || !f.ChecksumValid {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if !bytes.Equal(f.Payload, []byte{0x01, 0x64, 0x09}) {
		t.Fatalf("payload = % X", f.Payload)
	}
}

func TestStreamDecoder_Fragmented(t *testing.T) {
	// 逐字节喂入，仅在最后一个字节到达时成帧
	d := NewStreamDecoder(Sum16BE, 0)
	raw := PowerOn()
	for i := 0; i < len(raw)-1; i++ {
		if frames := d.Feed(raw[i : i+1]); len(frames) != 0 {
			t.Fatalf("premature frame at byte %d", i)
		}
	}
	frames := d.Feed(raw[len(raw)-1:])
	if len(frames) != 1 || !frames[0].IsPower() || !frames[0].ChecksumValid {
		t.Fatalf("unexpected result: %+v", frames)
	}
}

func TestStreamDecoder_GarbagePrefix(t *testing.T) {
	// 帧前噪声被丢弃，帧仍可同步
	d := NewStreamDecoder(Sum16BE, 0)
	input := append([]byte{0x00, 0xFF, 0x13}, CCTCommand(10, 2900)...)
	frames := d.Feed(input)
	if len(frames) != 1 || !frames[0].ChecksumValid {
		t.Fatalf("unexpected result: %+v", frames)
	}
}

func TestStreamDecoder_BackToBackFrames(t *testing.T) {
	// 粘包：两帧一次喂入
	d := NewStreamDecoder(Sum16BE, 0)
	input := append(PowerOn(), CCTCommand(80, 7000)...)
	frames := d.Feed(input)
	if len(frames) != 2 {
		t.Fatalf("frames = %d, expected 2", len(frames))
	}
	if !frames[0].IsPower() || !frames[1].IsCCT() {
		t.Fatalf("unexpected order: %+v %+v", frames[0], frames[1])
	}
}

func TestStreamDecoder_LyingLengthStatus(t *testing.T) {
	// len 字段不可信的8字节状态帧经固定长度回退路径恢复
	raw := []byte{0x3A, 0x02, 0x05, 0x01, 0x32, 0x09}
	raw = AppendChecksum(raw, Sum16BE) // 0x7D
	d := NewStreamDecoder(Sum16BE, 0)
	frames := d.Feed(raw)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, expected 1", len(frames))
	}
	f := frames[0]
	if f.Length != 0x05 || len(f.Payload) != 3 || !f.LengthMismatch() {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if !f.ChecksumValid {
		t.Fatalf("checksum should verify over fixed 8-byte shape")
	}
}

func TestStreamDecoder_Sum8StatusFallback(t *testing.T) {
	// 8位宽度的解码器仍能按16位大端回退恢复标准状态帧
	d := NewStreamDecoder(Sum8, 0)
	frames := d.Feed(CCTCommand(50, 4950))
	if len(frames) != 1 || !frames[0].ChecksumValid {
		t.Fatalf("unexpected result: %+v", frames)
	}
	if frames[0].Width != Sum16BE {
		t.Fatalf("width = %v, expected Sum16BE fallback", frames[0].Width)
	}
}

func TestStreamDecoder_GarbageOnly(t *testing.T) {
	d := NewStreamDecoder(Sum16BE, 0)
	if frames := d.Feed([]byte{0x00, 0x01, 0x02, 0xFF}); len(frames) != 0 {
		t.Fatalf("expected no frames, got %d", len(frames))
	}
	if len(d.buf) != 0 {
		t.Fatalf("buffer should be cleared, has %d bytes", len(d.buf))
	}
}

func TestStreamDecoder_BadChecksumSlides(t *testing.T) {
	// 校验失败的帧被滑过，后续完好帧仍可解出
	bad := CCTCommand(20, 3000)
	bad[4] ^= 0xFF
	d := NewStreamDecoder(Sum16BE, 0)
	input := append(bad, PowerOff()...)
	frames := d.Feed(input)
	if len(frames) != 1 || !frames[0].IsPower() {
		t.Fatalf("unexpected result: %+v", frames)
	}
	if frames[0].Payload[0] != PowerOffArg {
		t.Fatalf("payload = % X", frames[0].Payload)
	}
}
