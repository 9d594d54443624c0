package probe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
)

func TestDefaultPlan(t *testing.T) {
	p := DefaultPlan()
	require.NoError(t, p.Validate())
	assert.Equal(t, []int{115200}, p.Bauds())
	assert.Len(t, p.Steps, 11)

	frame, err := p.Steps[0].Frame()
	require.NoError(t, err)
	assert.Equal(t, neewer.PowerOn(), frame)

	// 旧版 BLE 开机猜测：78 81 01 01 + 8位累加和 FB
	var bleOn []byte
	for _, s := range p.Steps {
		if s.Label == "ble power on (sum8)" {
			bleOn, err = s.Frame()
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []byte{0x78, 0x81, 0x01, 0x01, 0xFB}, bleOn)
}

func writePlan(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlan(t, `
baudRates: [9600, 115200]
steps:
  - label: power on
    prefix: 0x3A
    tag: 0x06
    payload: "01"
    width: sum16be
    dwell: 250ms
  - label: status shape guess
    raw: "3a 02 03 01 64 09 00"
    width: sum8
`)
	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, []int{9600, 115200}, p.Bauds())
	require.Len(t, p.Steps, 2)

	frame, err := p.Steps[0].Frame()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3A, 0x06, 0x01, 0x01, 0x00, 0x42}, frame)
	assert.Equal(t, 250*time.Millisecond, p.Steps[0].Dwell.Duration)

	// raw 帧体整段保留，按 sum8 追加校验
	frame, err = p.Steps[1].Frame()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09, 0x00, 0xAD}, frame)
}

func TestLoadPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"空计划", "steps: []"},
		{"缺标签", "steps:\n  - prefix: 0x3A\n    tag: 0x06\n    payload: \"01\"\n"},
		{"非法十六进制", "steps:\n  - label: x\n    payload: \"zz\"\n"},
		{"未知校验宽度", "steps:\n  - label: x\n    payload: \"01\"\n    width: crc16\n"},
		{"非法时长", "steps:\n  - label: x\n    payload: \"01\"\n    dwell: fast\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPlan(writePlan(t, tt.text))
			assert.Error(t, err)
		})
	}

	_, err := LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
