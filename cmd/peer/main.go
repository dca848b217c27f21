// Command peer runs one fabric node: it joins the registry, serves
// Get/Put traffic for the keys it owns, and exposes nothing else — data
// gets in and out of the fabric through sorer.Read, dataframe constructors
// and a process embedding this node's kv.Store directly, not through this
// binary. Thin launcher, out of scope for CLI polish per the module's
// Non-goals.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"

	"github.com/chunkfabric/eau2/config"
	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/peer"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=value config file (optional, defaults apply)")
	listenAddr := flag.String("listen", "", "address to listen on (overrides config ClientIP:0)")
	registryAddr := flag.String("registry", "", "registry address to join (overrides config ServerIP:ListenPort)")
	flag.Parse()

	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(colorable.NewColorableStderr(), log.TerminalFormat(true))))
	logger := log.New("component", "peer-main")

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Crit("failed to load config", "err", err)
		}
		cfg = loaded
	}

	reg := *registryAddr
	if reg == "" {
		ip := cfg.ServerIP
		if ip == "" {
			ip = "127.0.0.1"
		}
		port := cfg.ListenPort
		if port == 0 {
			port = config.DefaultListenPort
		}
		reg = net.JoinHostPort(ip, strconv.Itoa(port))
	}

	addr := *listenAddr
	if addr == "" {
		ip := cfg.ClientIP
		if ip == "" {
			ip = "127.0.0.1"
		}
		addr = net.JoinHostPort(ip, "0")
	}

	p := peer.New(reg, cfg.MaxPacketLen, cfg.ClientNum)
	if err := p.Listen(addr); err != nil {
		logger.Crit("failed to listen", "addr", addr, "err", err)
	}
	logger.Info("peer listening", "addr", p.Addr().String(), "registry", reg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := p.Serve(ctx); err != nil {
			logger.Error("serve exited", "err", err)
		}
	}()

	if err := p.Join(ctx); err != nil {
		logger.Crit("failed to join fabric", "err", err)
	}
	store := kv.NewStore(p.Index(), p)
	p.SetStore(store)
	logger.Info("joined fabric", "index", p.Index(), "peers", len(p.Directory()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	p.Shutdown(cancel)
}
