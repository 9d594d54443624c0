package probe

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
)

// HexBytes YAML 中的十六进制字节串，如 "3a 06 01 01" 或 "3a060101"
type HexBytes []byte

func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	clean := strings.NewReplacer(" ", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return fmt.Errorf("invalid hex %q: %w", s, err)
	}
	*h = b
	return nil
}

// Duration YAML 中的时长字段，接受 time.ParseDuration 语法（如 500ms）
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Step 探测计划中的一步：一条命令帧猜测
// 常规帧由 prefix/tag/payload 组装；raw 设置时整段作为帧体。
// 两种写法都按 width 追加校验和
type Step struct {
	Label   string   `yaml:"label"`
	Prefix  byte     `yaml:"prefix"`
	Tag     byte     `yaml:"tag"`
	Payload HexBytes `yaml:"payload"`
	Raw     HexBytes `yaml:"raw"`
	Width   string   `yaml:"width"`
	Dwell   Duration `yaml:"dwell"`
}

// Frame 组装该步的完整命令帧
func (s Step) Frame() ([]byte, error) {
	w, err := neewer.ParseChecksumWidth(s.Width)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", s.Label, err)
	}
	if len(s.Raw) > 0 {
		return neewer.AppendChecksum(append([]byte(nil), s.Raw...), w), nil
	}
	return neewer.Encode(s.Prefix, s.Tag, s.Payload, w), nil
}

// Plan 探测计划：对每个波特率执行全部步骤
type Plan struct {
	BaudRates []int  `yaml:"baudRates"`
	Steps     []Step `yaml:"steps"`
}

// Bauds 计划的波特率列表，缺省 115200
func (p *Plan) Bauds() []int {
	if len(p.BaudRates) == 0 {
		return []int{115200}
	}
	return p.BaudRates
}

// Validate 校验计划可执行：至少一步、步骤有标签且能组出帧
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for i, s := range p.Steps {
		if s.Label == "" {
			return fmt.Errorf("step %d: missing label", i+1)
		}
		if _, err := s.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// LoadPlan 从 YAML 文件读取探测计划
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &p, nil
}

// DefaultPlan 稳定探测集：电源与 CCT 命令在两种校验宽度下各试一遍，
// 外加旧版 BLE 风格 0x78 帧猜测
func DefaultPlan() *Plan {
	return &Plan{
		BaudRates: []int{115200},
		Steps: []Step{
			{Label: "power on (sum16be)", Prefix: 0x3A, Tag: 0x06, Payload: HexBytes{0x01}, Width: "sum16be"},
			{Label: "power off (sum16be)", Prefix: 0x3A, Tag: 0x06, Payload: HexBytes{0x02}, Width: "sum16be"},
			{Label: "cct 100% temp 0x09 (sum16be)", Prefix: 0x3A, Tag: 0x02, Payload: HexBytes{0x01, 0x64, 0x09}, Width: "sum16be"},
			{Label: "cct 50% temp 0x09 (sum16be)", Prefix: 0x3A, Tag: 0x02, Payload: HexBytes{0x01, 0x32, 0x09}, Width: "sum16be"},
			{Label: "cct 10% temp 0x09 (sum16be)", Prefix: 0x3A, Tag: 0x02, Payload: HexBytes{0x01, 0x0A, 0x09}, Width: "sum16be"},
			{Label: "power on (sum8)", Prefix: 0x3A, Tag: 0x06, Payload: HexBytes{0x01}, Width: "sum8"},
			{Label: "cct 100% temp 0x09 (sum8)", Prefix: 0x3A, Tag: 0x02, Payload: HexBytes{0x01, 0x64, 0x09}, Width: "sum8"},
			{Label: "ble power on (sum8)", Prefix: 0x78, Tag: 0x81, Payload: HexBytes{0x01}, Width: "sum8"},
			{Label: "ble cct 100% (sum8)", Prefix: 0x78, Tag: 0x87, Payload: HexBytes{0x64, 0x2C}, Width: "sum8"},
			{Label: "ble power on (sum16be)", Prefix: 0x78, Tag: 0x81, Payload: HexBytes{0x01}, Width: "sum16be"},
			{Label: "ble cct 100% (sum16be)", Prefix: 0x78, Tag: 0x87, Payload: HexBytes{0x64, 0x2C}, Width: "sum16be"},
		},
	}
}
