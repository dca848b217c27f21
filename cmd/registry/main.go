// Command registry runs the fabric's directory service: a single process
// that accepts Register/Deregister traffic and broadcasts the peer
// directory once quorum is reached. Thin launcher wiring config into
// registry.Registry, grounded in the terminal-logging setup used across
// the teacher's test harnesses (swarm/storage/test/common.go).
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"

	"github.com/chunkfabric/eau2/config"
	"github.com/chunkfabric/eau2/registry"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=value config file (optional, defaults apply)")
	listenAddr := flag.String("listen", "", "address to listen on (overrides config ServerIP:ListenPort)")
	flag.Parse()

	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(colorable.NewColorableStderr(), log.TerminalFormat(true))))
	logger := log.New("component", "registry-main")

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Crit("failed to load config", "err", err)
		}
		cfg = loaded
	}

	addr := *listenAddr
	if addr == "" {
		addr = hostPort(cfg)
	}

	r := registry.New(cfg.ClientNum, cfg.MaxPacketLen)
	if err := r.Listen(addr); err != nil {
		logger.Crit("failed to listen", "addr", addr, "err", err)
	}
	logger.Info("registry listening", "addr", r.Addr().String(), "quorum", cfg.ClientNum)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// original_source/src/server.cpp: sleep(config.SERVER_UP_TIME) then
	// tear the server down; SIGINT/SIGTERM can still cut this short.
	upTimer := time.NewTimer(time.Duration(cfg.ServerUpTime) * time.Second)
	go func() {
		defer upTimer.Stop()
		select {
		case <-sigCh:
			logger.Info("shutting down", "reason", "signal")
		case <-upTimer.C:
			logger.Info("shutting down", "reason", "server up-time elapsed", "seconds", cfg.ServerUpTime)
		}
		r.Shutdown(ctx)
		cancel()
	}()

	if err := r.Serve(ctx); err != nil {
		logger.Error("serve exited", "err", err)
	}
}

func hostPort(cfg config.Config) string {
	ip := cfg.ServerIP
	if ip == "" {
		ip = "127.0.0.1"
	}
	port := cfg.ListenPort
	if port == 0 {
		port = config.DefaultListenPort
	}
	return net.JoinHostPort(ip, strconv.Itoa(port))
}
