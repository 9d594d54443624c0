package health

import (
	"context"
	"time"

	"github.com/taoyao-code/pl81-usb/internal/relay"
)

// SessionChecker 中继会话健康检查器
type SessionChecker struct {
	session *relay.Session
}

// NewSessionChecker 创建中继会话检查器
func NewSessionChecker(s *relay.Session) *SessionChecker {
	return &SessionChecker{session: s}
}

// Name 返回检查器名称
func (c *SessionChecker) Name() string {
	return "relay_session"
}

// Check 执行健康检查
// 会话运行中为健康；尚未启动为降级；已停止为不健康
func (c *SessionChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	snap := c.session.Snapshot()

	status := StatusHealthy
	message := "relaying"
	switch c.session.State() {
	case relay.StateCreated:
		status = StatusDegraded
		message = "session not started"
	case relay.StateStopped:
		status = StatusUnhealthy
		message = "session stopped"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"session_id":      snap.ID,
			"virtual_path":    snap.VirtualPath,
			"device_path":     snap.DevicePath,
			"bytes_to_device": snap.BytesToDevice,
			"bytes_to_client": snap.BytesToClient,
		},
		Latency: time.Since(start),
	}
}
