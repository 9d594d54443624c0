package health

import "sync/atomic"

// Readiness 就绪状态聚合（设备端点、中继会话）
type Readiness struct {
	deviceReady  atomic.Bool
	sessionReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetDeviceReady(v bool)  { r.deviceReady.Store(v) }
func (r *Readiness) SetSessionReady(v bool) { r.sessionReady.Store(v) }

// Ready 总体就绪：设备已打开且会话在转发
func (r *Readiness) Ready() bool {
	return r.deviceReady.Load() && r.sessionReady.Load()
}
