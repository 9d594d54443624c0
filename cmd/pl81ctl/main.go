package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/taoyao-code/pl81-usb/internal/config"
	"github.com/taoyao-code/pl81-usb/internal/control"
	"github.com/taoyao-code/pl81-usb/internal/logging"
	"github.com/taoyao-code/pl81-usb/internal/probe"
	"github.com/taoyao-code/pl81-usb/internal/protocol/neewer"
	"github.com/taoyao-code/pl81-usb/internal/serialio"

	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, `用法: pl81ctl [全局选项] <命令> [命令选项]

命令:
  on          开灯
  off         关灯
  set         设置亮度与色温（-brightness -kelvin）
  status      监听并打印设备状态回报
  ports       列出候选串口
  probe       按探测计划向串口发射候选帧（-plan）
  probe-hid   按探测计划向 HID 接口发射候选帧（-vid -pid）

全局选项:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 PL81_CONFIG 或 configs/example.yaml）")
	portPath := flag.String("port", "", "串口路径（覆盖配置；两者都为空时自动探测）")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli{cfg: cfg, log: zap.L(), port: *portPath}
	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		app.log.Error("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}
}

type cli struct {
	cfg  *cfgpkg.Config
	log  *zap.Logger
	port string
}

func (a *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "on":
		return a.power(ctx, true)
	case "off":
		return a.power(ctx, false)
	case "set":
		return a.set(ctx, args)
	case "status":
		return a.status(ctx)
	case "ports":
		return a.ports()
	case "probe":
		return a.probe(ctx, args)
	case "probe-hid":
		return a.probeHID(args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// resolvePort 命令行 > 配置 > 自动探测
func (a *cli) resolvePort() (string, error) {
	if a.port != "" {
		return a.port, nil
	}
	if a.cfg.Serial.Path != "" {
		return a.cfg.Serial.Path, nil
	}
	return serialio.FindPort()
}

func (a *cli) dial() (*control.Client, error) {
	path, err := a.resolvePort()
	if err != nil {
		return nil, err
	}
	portCfg := serialio.PortConfig{
		BaudRate: a.cfg.Serial.BaudRate,
		DataBits: a.cfg.Serial.DataBits,
		Parity:   a.cfg.Serial.Parity,
		StopBits: a.cfg.Serial.StopBits,
	}
	ctrlCfg := control.Config{
		MinInterval:  a.cfg.Control.MinInterval,
		ResponseWait: a.cfg.Control.ResponseWait,
	}
	return control.Dial(path, portCfg, ctrlCfg, a.log, nil)
}

func (a *cli) power(ctx context.Context, on bool) error {
	c, err := a.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if on {
		if err := c.PowerOn(ctx); err != nil {
			return err
		}
		fmt.Println("power on sent")
		return nil
	}
	if err := c.PowerOff(ctx); err != nil {
		return err
	}
	fmt.Println("power off sent")
	return nil
}

func (a *cli) set(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	brightness := fs.Int("brightness", 100, "亮度 0-100")
	kelvin := fs.Int("kelvin", 5600, "色温 2900-7000K，四舍五入到最近档位")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *brightness < 0 || *brightness > 100 {
		return fmt.Errorf("brightness %d out of range 0-100", *brightness)
	}
	if *kelvin < neewer.TempMinK || *kelvin > neewer.TempMaxK {
		return fmt.Errorf("kelvin %d out of range %d-%d", *kelvin, neewer.TempMinK, neewer.TempMaxK)
	}

	c, err := a.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := c.SetCCT(ctx, *brightness, *kelvin)
	if err != nil {
		return err
	}
	fmt.Printf("set brightness=%d%% temp=%dK (code 0x%02X)\n", *brightness, *kelvin, neewer.KelvinToByte(*kelvin))
	if st != nil {
		printStatus(*st)
	} else {
		fmt.Println("no status echo (device reports only on change)")
	}
	return nil
}

func (a *cli) status(ctx context.Context) error {
	c, err := a.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := c.ReadStatus(ctx)
	if errors.Is(err, control.ErrNoStatus) {
		fmt.Println("no status frame received (device reports only on change; try toggling the panel)")
		return nil
	}
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func printStatus(st neewer.Status) {
	fmt.Printf("status: mode=0x%02X brightness=%d%% temp=%dK (code 0x%02X)\n",
		st.Mode, st.Brightness, st.Kelvin(), st.TempByte)
}

func (a *cli) ports() error {
	ports, err := serialio.DiscoverPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

func (a *cli) loadPlan(planFile string) (*probe.Plan, error) {
	if planFile == "" {
		planFile = a.cfg.Probe.PlanFile
	}
	if planFile == "" {
		return probe.DefaultPlan(), nil
	}
	return probe.LoadPlan(planFile)
}

func (a *cli) probe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	planFile := fs.String("plan", "", "探测计划 YAML（默认取配置或内置计划）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plan, err := a.loadPlan(*planFile)
	if err != nil {
		return err
	}
	path, err := a.resolvePort()
	if err != nil {
		return err
	}

	runner := probe.NewRunner(plan, probe.Config{
		Dwell:        a.cfg.Probe.Dwell,
		ResponseWait: a.cfg.Probe.ResponseWait,
	}, a.log, nil)
	return runner.Run(ctx, path)
}

func (a *cli) probeHID(args []string) error {
	fs := flag.NewFlagSet("probe-hid", flag.ExitOnError)
	planFile := fs.String("plan", "", "探测计划 YAML（默认取配置或内置计划）")
	vid := fs.Uint("vid", uint(probe.DefaultHIDVendorID), "HID 厂商 ID（支持 0x 前缀）")
	pid := fs.Uint("pid", uint(probe.DefaultHIDProductID), "HID 产品 ID（支持 0x 前缀）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plan, err := a.loadPlan(*planFile)
	if err != nil {
		return err
	}

	hp := probe.NewHIDProbe(probe.HIDConfig{
		VendorID:  uint16(*vid),
		ProductID: uint16(*pid),
	}, a.log, nil)
	return hp.Run(plan)
}
