package rf

import (
	"fmt"

	"github.com/tarm/serial"
)

// Port 串口最小接口
type Port interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// PortOpener 打开串口
type PortOpener func(cfg Config) (Port, error)

// OpenSerial 使用 tarm/serial 打开本机串口
func OpenSerial(cfg Config) (Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("rf: serial device not configured")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return p, nil
}
