package health

import (
	"context"
	"os"
	"time"

	"github.com/taoyao-code/pl81-usb/internal/serialio"
)

// SerialChecker 串口设备存在性检查器
// 会话已打开的串口不能再开第二次，这里只确认设备节点还在系统里
type SerialChecker struct {
	path string
}

// NewSerialChecker 创建串口设备检查器
func NewSerialChecker(path string) *SerialChecker {
	return &SerialChecker{path: path}
}

// Name 返回检查器名称
func (c *SerialChecker) Name() string {
	return "serial_device"
}

// Check 执行健康检查
func (c *SerialChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if c.path == "" {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "no device path configured",
			Latency: time.Since(start),
		}
	}

	details := map[string]interface{}{
		"path": c.path,
	}
	if ports, err := serialio.DiscoverPorts(); err == nil {
		details["ports"] = ports
	}

	if _, err := os.Stat(c.path); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "device node missing",
			Details: details,
			Latency: time.Since(start),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: details,
		Latency: time.Since(start),
	}
}
