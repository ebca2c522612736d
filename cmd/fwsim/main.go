// fwsim 在主机上运行参考固件节点，用于联调 lbe-link 服务端（仅明文模式）
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/firmware"
	"github.com/taoyao-code/lbe-link/internal/logging"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
	"github.com/taoyao-code/lbe-link/internal/transport/udp"
)

func main() {
	remote := flag.String("remote", "127.0.0.1", "host IP")
	remotePort := flag.Int("remote-port", 8888, "host port")
	listen := flag.String("listen", "0.0.0.0:8889", "local bind address")
	interval := flag.Duration("interval", 100*time.Millisecond, "sensor report interval")
	analogCh := flag.Uint("analog-channel", 1, "analog sensor channel")
	buttonEvery := flag.Int("button-every", 20, "emit a button event every N reports, 0 disables")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *analogCh > 255 {
		fmt.Fprintln(os.Stderr, "analog-channel must be 0..255")
		os.Exit(2)
	}

	log, _ := zap.NewDevelopment(zap.IncreaseLevel(logging.ParseLevel(*level)))
	defer func() { _ = log.Sync() }()

	tr, err := udp.Open(*remote, *remotePort, udp.Options{LocalAddr: *listen})
	if err != nil {
		log.Fatal("open transport", zap.Error(err))
	}
	defer tr.Close()

	node := firmware.NewNode(firmware.SenderFunc(tr.Send), log)
	log.Info("firmware node running",
		zap.String("local", tr.LocalAddr().String()),
		zap.String("remote", tr.RemoteAddr().String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, node, tr, *interval, uint8(*analogCh), *buttonEvery, log); err != nil {
		log.Error("node stopped", zap.Error(err))
	}
	log.Info("firmware node stopped", zap.Any("stats", node.Stats()))
}

// run 固件主循环：轮询入站命令，定时上报传感器
func run(ctx context.Context, node *firmware.Node, tr *udp.Transport, interval time.Duration, analogCh uint8, buttonEvery int, log *zap.Logger) error {
	poll := time.NewTicker(time.Millisecond)
	defer poll.Stop()
	report := time.NewTicker(interval)
	defer report.Stop()

	start := time.Now()
	var n int
	var code uint32
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			for {
				dg, ok, err := tr.TryReceive()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				node.Handle(dg.Data)
			}
		case now := <-report.C:
			n++
			t := now.Sub(start).Seconds()
			if err := node.EmitAnalog(analogCh, float32(math.Sin(t))); err != nil {
				log.Warn("emit analog", zap.Error(err))
			}
			if buttonEvery > 0 && n%buttonEvery == 0 {
				code++
				e := wire.ButtonEvent{
					Button:      1,
					Pressed:     n%(2*buttonEvery) == 0,
					Code:        code,
					TimestampMs: uint32(now.Sub(start).Milliseconds()),
				}
				if err := node.EmitButton(e); err != nil {
					log.Warn("emit button", zap.Error(err))
				}
			}
		}
	}
}
