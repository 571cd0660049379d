// Command rtudp-send is a demo driver that sends a single payload through
// an RtUdp endpoint and reports the resulting stats.
package main

import (
	"context"
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
	localIP := flag.String("local-ip", "127.0.0.1", "Local IP")
	localPort := flag.Uint("local-port", 5000, "Local port")
	remoteIP := flag.String("remote-ip", "127.0.0.1", "Remote IP")
	remotePort := flag.Uint("remote-port", 5001, "Remote port")
	backend := flag.String("backend", "socket", "Backend: socket|emulated")
	delay := flag.Duration("delay", 0, "Schedule the send this far in the future")
	payload := flag.String("payload", "hello", "Payload to send")
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
	cfg.Direction = rtudp.DirectionSend
	cfg.Connect = true

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

	deadline := time.Now().Add(*delay).UnixNano()
	if err := ep.SendDataAt([]byte(*payload), deadline); err != nil {
		fmt.Fprintf(os.Stderr, "Error: send failed: %v\n", err)
		os.Exit(1)
	}

	// Give the dispatcher a moment to drain before reporting.
	time.Sleep(50 * time.Millisecond)

	stats := ep.Stats()
	fmt.Printf("Sent %d packet(s), %d dropped\n", stats.NPacketsSent, stats.NTxPacketsDropped)
}
