// Command rtudp-recv is a demo driver that listens on an RtUdp endpoint
// and prints each delivered payload until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rtudp/rtudp/pkg/rtudp"
)

func main() {
	localIP := flag.String("local-ip", "0.0.0.0", "Local IP")
	localPort := flag.Uint("local-port", 5001, "Local port")
	remoteIP := flag.String("remote-ip", "127.0.0.1", "Remote IP (for identity only)")
	remotePort := flag.Uint("remote-port", 5000, "Remote port (for identity only)")
	backend := flag.String("backend", "socket", "Backend: socket|emulated")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-packet receive timeout")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	b, err := rtudp.NewBackend(*backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := *rtudp.DefaultConfig()
	cfg.LocalIP = *localIP
	cfg.LocalPort = uint16(*localPort)
	cfg.RemoteIP = *remoteIP
	cfg.RemotePort = uint16(*remotePort)
	cfg.Backend = b
	cfg.Direction = rtudp.DirectionRecv
	cfg.Bind = true

	ep, err := rtudp.New(cfg, rtudp.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to construct endpoint: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := ep.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init endpoint: %v\n", err)
		os.Exit(1)
	}
	defer ep.Close()

	if err := ep.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start endpoint: %v\n", err)
		os.Exit(1)
	}
	defer ep.Stop()

	fmt.Printf("Listening: %s\n", ep)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pkt, err := ep.ReceiveData(*timeout)
		if err != nil {
			if errors.Is(err, rtudp.ErrTimeout) {
				continue
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Printf("Received %d bytes at %s\n", len(pkt.Payload), pkt.ArrivalTime().Format(time.RFC3339Nano))
	}
}
