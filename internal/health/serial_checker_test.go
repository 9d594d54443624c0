package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSerialChecker(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "ttyUSB0")
	if err := os.WriteFile(dev, nil, 0o644); err != nil {
		t.Fatalf("创建模拟设备节点: %v", err)
	}

	t.Run("设备节点存在", func(t *testing.T) {
		res := NewSerialChecker(dev).Check(context.Background())
		if res.Status != StatusHealthy {
			t.Errorf("期望StatusHealthy，实际: %v", res.Status)
		}
		if res.Details["path"] != dev {
			t.Errorf("Details.path 期望 %s，实际: %v", dev, res.Details["path"])
		}
	})

	t.Run("设备节点消失", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "gone")
		res := NewSerialChecker(missing).Check(context.Background())
		if res.Status != StatusUnhealthy {
			t.Errorf("期望StatusUnhealthy，实际: %v", res.Status)
		}
	})

	t.Run("未配置路径", func(t *testing.T) {
		res := NewSerialChecker("").Check(context.Background())
		if res.Status != StatusDegraded {
			t.Errorf("期望StatusDegraded，实际: %v", res.Status)
		}
	})
}
