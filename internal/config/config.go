package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// SerialConfig 真实设备串口配置
type SerialConfig struct {
	Path        string        `mapstructure:"path"` // 为空时自动探测 usbserial 风格端口
	BaudRate    int           `mapstructure:"baudRate"`
	DataBits    int           `mapstructure:"dataBits"`
	Parity      string        `mapstructure:"parity"`
	StopBits    int           `mapstructure:"stopBits"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// SnifferConfig 透明中继/抓包配置
type SnifferConfig struct {
	CaptureDir    string `mapstructure:"captureDir"`
	BufferSize    int    `mapstructure:"bufferSize"`
	Annotate      bool   `mapstructure:"annotate"`
	ChecksumWidth string `mapstructure:"checksumWidth"` // sum8 | sum16be
	ConsoleEcho   bool   `mapstructure:"consoleEcho"`
}

// ControlConfig 控制命令客户端配置
type ControlConfig struct {
	MinInterval  time.Duration `mapstructure:"minInterval"`  // 相邻命令最小间隔，设备需要落定时间
	ResponseWait time.Duration `mapstructure:"responseWait"` // 命令后等待回显/状态的时长
}

// ProbeConfig 协议探测配置
type ProbeConfig struct {
	PlanFile     string        `mapstructure:"planFile"` // 为空时使用内置探测计划
	Dwell        time.Duration `mapstructure:"dwell"`
	ResponseWait time.Duration `mapstructure:"responseWait"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Enable       bool          `mapstructure:"enable"`
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Serial  SerialConfig  `mapstructure:"serial"`
	Sniffer SnifferConfig `mapstructure:"sniffer"`
	Control ControlConfig `mapstructure:"control"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 PL81_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("PL81_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	// 默认值
	setDefaults(v)

	// 环境变量覆盖：前缀 PL81_，并将点号替换为下划线
	v.SetEnvPrefix("PL81")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if fmt.Sprintf("%T", err) != fmt.Sprintf("%T", notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pl81-usb")
	v.SetDefault("app.env", "dev")

	v.SetDefault("serial.path", "")
	v.SetDefault("serial.baudRate", 115200)
	v.SetDefault("serial.dataBits", 8)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.stopBits", 1)
	v.SetDefault("serial.readTimeout", "100ms")

	v.SetDefault("sniffer.captureDir", "captures")
	v.SetDefault("sniffer.bufferSize", 4096)
	v.SetDefault("sniffer.annotate", true)
	v.SetDefault("sniffer.checksumWidth", "sum16be")
	v.SetDefault("sniffer.consoleEcho", true)

	v.SetDefault("control.minInterval", "200ms")
	v.SetDefault("control.responseWait", "300ms")

	v.SetDefault("probe.planFile", "")
	v.SetDefault("probe.dwell", "500ms")
	v.SetDefault("probe.responseWait", "300ms")

	v.SetDefault("http.enable", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "logs/pl81-usb.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")
}
