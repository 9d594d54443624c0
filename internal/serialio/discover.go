package serialio

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

var (
	// ErrNoPort 系统中没有匹配的 USB 串口
	ErrNoPort = errors.New("no usb serial port found")
)

// usb 串口常见命名片段：macOS 的 usbserial、Linux 的 ttyUSB/ttyACM
var usbPortHints = []string{"usbserial", "ttyUSB", "ttyACM"}

// DiscoverPorts 列出候选串口，优先返回 USB 命名风格匹配的端口
// 无一匹配时返回系统全部串口，便于操作者自行判断
func DiscoverPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	var matched []string
	for _, p := range ports {
		if matchesUSBHint(p) {
			matched = append(matched, p)
		}
	}
	if len(matched) > 0 {
		return matched, nil
	}
	return ports, nil
}

// FindPort 返回第一个 USB 风格命名的串口路径
func FindPort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}
	for _, p := range ports {
		if matchesUSBHint(p) {
			return p, nil
		}
	}
	return "", ErrNoPort
}

func matchesUSBHint(path string) bool {
	for _, hint := range usbPortHints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}
