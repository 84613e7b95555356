package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"connprobe/internal/peer"
	"connprobe/internal/shared/config"
	"connprobe/internal/shared/logger"
	"connprobe/internal/shared/types"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "connprobe.ini")

	cfg := types.DefaultConfig()
	if err := config.LoadIni(cfg, iniPath); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogConf, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	server := peer.New(cfg.PeerConf)
	if _, err := server.Listen(); err != nil {
		logger.Fatal().Err(err).Msg("Peer bootstrap failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutting down peer...")
		if err := server.Close(); err != nil {
			logger.Warn().Err(err).Msg("Peer close returned error")
		}
	}()

	if err := server.Serve(); err != nil {
		logger.Fatal().Err(err).Msg("Peer stopped unexpectedly")
	}
	// Serve returns as soon as the listener closes; wait for open sessions too.
	_ = server.Close()
	st := server.Stats()
	logger.Info().Uint64("sessions", st.Sessions).Uint64("sent", st.Sent).Uint64("received", st.Received).Msg("Peer stopped")
}
