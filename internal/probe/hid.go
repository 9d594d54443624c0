package probe

import (
	"fmt"
	"time"

	"github.com/sstallion/go-hid"
	"go.uber.org/zap"

	"github.com/taoyao-code/pl81-usb/internal/metrics"
)

// 面板上 Realtek HID 接口的厂商/产品号
const (
	DefaultHIDVendorID  = 0x0BDA
	DefaultHIDProductID = 0x1100
)

// HIDConfig HID 探测配置
type HIDConfig struct {
	VendorID    uint16
	ProductID   uint16
	ReportSizes []int         // 输出报告长度扫描序列
	ReadWait    time.Duration // 每次写后读回包的等待
}

func (c *HIDConfig) applyDefaults() {
	if c.VendorID == 0 {
		c.VendorID = DefaultHIDVendorID
	}
	if c.ProductID == 0 {
		c.ProductID = DefaultHIDProductID
	}
	if len(c.ReportSizes) == 0 {
		c.ReportSizes = []int{8, 16, 32, 64, 192}
	}
	if c.ReadWait <= 0 {
		c.ReadWait = 300 * time.Millisecond
	}
}

// HIDProbe 对 HID 接口发射命令帧猜测
// 面板的 HID 接口疑似只做集线器管理，这条探测路径用来证实或排除它
type HIDProbe struct {
	cfg HIDConfig
	log *zap.Logger
	m   *metrics.AppMetrics
}

// NewHIDProbe 创建 HID 探测器
func NewHIDProbe(cfg HIDConfig, logger *zap.Logger, m *metrics.AppMetrics) *HIDProbe {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HIDProbe{cfg: cfg, log: logger, m: m}
}

// Run 枚举匹配的 HID 接口，对每个接口发射计划中的全部帧
func (p *HIDProbe) Run(plan *Plan) error {
	if err := hid.Init(); err != nil {
		return fmt.Errorf("hidapi init: %w", err)
	}
	defer hid.Exit()

	var paths []string
	err := hid.Enumerate(p.cfg.VendorID, p.cfg.ProductID, func(info *hid.DeviceInfo) error {
		p.log.Info("hid interface",
			zap.String("path", info.Path),
			zap.String("product", info.ProductStr),
			zap.Uint16("usage_page", uint16(info.UsagePage)),
			zap.Uint16("usage", uint16(info.Usage)),
			zap.Int("interface", info.InterfaceNbr),
		)
		paths = append(paths, info.Path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("hid enumerate: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no hid interface %04x:%04x found", p.cfg.VendorID, p.cfg.ProductID)
	}

	var firstErr error
	for _, path := range paths {
		if err := p.probePath(path, plan); err != nil {
			p.log.Warn("hid probe failed", zap.String("path", path), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// probePath 打开单个 HID 接口，按报告长度扫描发射全部帧猜测
func (p *HIDProbe) probePath(path string, plan *Plan) error {
	dev, err := hid.OpenPath(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer dev.Close()

	for _, step := range plan.Steps {
		frame, err := step.Frame()
		if err != nil {
			return err
		}
		for _, size := range p.cfg.ReportSizes {
			if len(frame) > size {
				continue
			}
			n, werr := dev.Write(buildReport(frame, size))
			if werr != nil {
				// 设备 STALL 拒绝也是探测结论的一部分，记下来继续
				p.countWrite("error")
				p.log.Info("hid write rejected",
					zap.String("label", step.Label),
					zap.Int("report_size", size),
					zap.Error(werr),
				)
				continue
			}
			p.countWrite("ok")
			p.log.Info("hid probe step",
				zap.String("label", step.Label),
				zap.Int("report_size", size),
				zap.Int("written", n),
				zap.String("frame", fmt.Sprintf("% X", frame)),
				zap.String("resp", p.readResponse(dev)),
			)
		}
	}
	return nil
}

// buildReport 报告号 0x00 + 帧体 + 零填充到报告长度
func buildReport(frame []byte, size int) []byte {
	report := make([]byte, 1+size)
	copy(report[1:], frame)
	return report
}

func (p *HIDProbe) readResponse(dev *hid.Device) string {
	buf := make([]byte, 256)
	n, err := dev.ReadWithTimeout(buf, p.cfg.ReadWait)
	if err != nil || n == 0 {
		return "(none)"
	}
	return fmt.Sprintf("% X", buf[:n])
}

func (p *HIDProbe) countWrite(result string) {
	if p.m != nil {
		p.m.ProbeWrites.WithLabelValues(result).Inc()
	}
}
