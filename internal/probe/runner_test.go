package probe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/pl81-usb/internal/metrics"
	"github.com/taoyao-code/pl81-usb/internal/serialio"
)

func TestRunnerSteps(t *testing.T) {
	near, far := serialio.Pipe()
	plan := &Plan{Steps: []Step{
		{Label: "power on", Prefix: 0x3A, Tag: 0x06, Payload: HexBytes{0x01}, Width: "sum16be", Dwell: Duration{10 * time.Millisecond}},
		{Label: "power off", Prefix: 0x3A, Tag: 0x06, Payload: HexBytes{0x02}, Width: "sum16be", Dwell: Duration{10 * time.Millisecond}},
	}}
	require.NoError(t, plan.Validate())

	// 模拟设备：每收到一帧回两个字节
	done := make(chan [][]byte, 1)
	go func() {
		var got [][]byte
		far.SetReadTimeout(50 * time.Millisecond)
		buf := make([]byte, 64)
		deadline := time.Now().Add(2 * time.Second)
		for len(got) < 2 && time.Now().Before(deadline) {
			n, err := far.Read(buf)
			if err != nil {
				break
			}
			if n == 0 {
				continue
			}
			got = append(got, append([]byte(nil), buf[:n]...))
			far.Write([]byte{0xAA, 0xBB})
		}
		done <- got
	}()

	m := metrics.NewAppMetrics(metrics.NewRegistry())
	r := NewRunner(plan, Config{Dwell: 10 * time.Millisecond, ResponseWait: 50 * time.Millisecond}, zap.NewNop(), m)
	require.NoError(t, r.RunSteps(context.Background(), near, 115200))

	got := <-done
	require.Len(t, got, 2)
	assert.Equal(t, []byte{0x3A, 0x06, 0x01, 0x01, 0x00, 0x42}, got[0])
	assert.Equal(t, []byte{0x3A, 0x06, 0x01, 0x02, 0x00, 0x43}, got[1])
}

func TestRunnerCanceled(t *testing.T) {
	near, _ := serialio.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(DefaultPlan(), Config{}, zap.NewNop(), nil)
	assert.ErrorIs(t, r.RunSteps(ctx, near, 115200), context.Canceled)
}

func TestRunnerWriteFailure(t *testing.T) {
	near, far := serialio.Pipe()
	far.Close()

	plan := &Plan{Steps: []Step{
		{Label: "power on", Prefix: 0x3A, Tag: 0x06, Payload: HexBytes{0x01}, Width: "sum16be", Dwell: Duration{time.Millisecond}},
	}}
	r := NewRunner(plan, Config{}, zap.NewNop(), nil)
	err := r.RunSteps(context.Background(), near, 115200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "power on"`)
}

func TestRunnerMissingPort(t *testing.T) {
	r := NewRunner(DefaultPlan(), Config{}, zap.NewNop(), nil)
	assert.Error(t, r.Run(context.Background(), "/dev/nonexistent-pl81"))
}

func TestBuildReport(t *testing.T) {
	frame := []byte{0x3A, 0x06, 0x01, 0x01, 0x00, 0x42}
	report := buildReport(frame, 192)
	require.Len(t, report, 193)
	assert.Equal(t, byte(0x00), report[0])
	assert.Equal(t, frame, report[1:1+len(frame)])
	assert.Equal(t, make([]byte, len(report)-1-len(frame)), report[1+len(frame):])
}
