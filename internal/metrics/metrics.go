package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// 会话状态 gauge 取值
const (
	SessionCreated = 0
	SessionRunning = 1
	SessionStopped = 2
)

// AppMetrics 自定义业务指标
type AppMetrics struct {
	RelayBytes       *prometheus.CounterVec // labels: direction=client_to_device|device_to_client
	RelayChunks      *prometheus.CounterVec // labels: direction
	FrameAnnotations *prometheus.CounterVec // labels: result=ok|checksum_mismatch
	RelayIOErrors    prometheus.Counter     // 中继循环中的读写失败
	SessionState     prometheus.Gauge       // 0-created 1-running 2-stopped
	ProbeWrites      *prometheus.CounterVec // labels: result=ok|error
	ControlCommands  *prometheus.CounterVec // labels: op=set_cct|power_on|power_off|read_status
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		RelayBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_bytes_total",
			Help: "Total bytes relayed by direction.",
		}, []string{"direction"}),
		RelayChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_chunks_total",
			Help: "Total chunks relayed by direction.",
		}, []string{"direction"}),
		FrameAnnotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frame_annotations_total",
			Help: "Frames recognized during capture annotation.",
		}, []string{"result"}),
		RelayIOErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_io_errors_total",
			Help: "Endpoint read/write failures observed by the relay loop.",
		}),
		SessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_session_state",
			Help: "Relay session state (0=created, 1=running, 2=stopped).",
		}),
		ProbeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probe_writes_total",
			Help: "Probe command writes by result.",
		}, []string{"result"}),
		ControlCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "control_commands_total",
			Help: "Control commands issued by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.RelayBytes, m.RelayChunks, m.FrameAnnotations, m.RelayIOErrors, m.SessionState, m.ProbeWrites, m.ControlCommands)
	return m
}
