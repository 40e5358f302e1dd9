// Command walletd wires the Node Client, Block Pipeline, Attribution
// Engine, Subwallets Store and Coordinator together and runs them until
// interrupted, in the composition-root style of the teacher's
// cmd/rivined daemon entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/QbitNetwork/Qbit-wallet-backend/build"
	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/attribution"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/coordinator"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/nodeclient"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/pipeline"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/subwallets"
	"github.com/QbitNetwork/Qbit-wallet-backend/persist"
	"github.com/QbitNetwork/Qbit-wallet-backend/pkg/config"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

type commands struct {
	daemonHost string
	configPath string
	persistDir string
	viewKeyHex string
}

func main() {
	var cmds commands

	rootCommand := &cobra.Command{
		Use:   os.Args[0],
		Short: "Qbit wallet synchronization daemon v" + build.Version,
		Long:  "Qbit wallet synchronization daemon v" + build.Version,
		Run:   cmds.rootCommand,
	}
	rootCommand.Flags().StringVar(&cmds.daemonHost, "daemon-host", "127.0.0.1:8070", "remote node host:port to sync against")
	rootCommand.Flags().StringVar(&cmds.configPath, "config", "", "path to a TOML configuration file (defaults applied if omitted)")
	rootCommand.Flags().StringVar(&cmds.persistDir, "persist-dir", "./walletdata", "directory for the wallet document and log file")
	rootCommand.Flags().StringVar(&cmds.viewKeyHex, "view-key", "", "hex-encoded private view key for a new wallet (required on first run)")

	rootCommand.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(*cobra.Command, []string) {
			fmt.Println(build.Version)
		},
	})

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}

func (c *commands) rootCommand(*cobra.Command, []string) {
	if err := os.MkdirAll(c.persistDir, 0700); err != nil {
		fmt.Fprintln(os.Stderr, "creating persist dir:", err)
		os.Exit(1)
	}

	log, err := persist.NewFileLogger(filepath.Join(c.persistDir, "walletd.log"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "opening log file:", err)
		os.Exit(1)
	}
	defer log.Close()

	cfg := config.Default()
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
		if err != nil {
			log.Errorf("loading config: %v", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := nodeclient.New(ctx, c.daemonHost, cfg.RequestTimeout, cfg.CustomUserAgent)
	if err != nil {
		log.Errorf("connecting to daemon: %v", err)
		os.Exit(1)
	}

	docPath := filepath.Join(c.persistDir, "wallet.json")
	store, err := loadOrCreateStore(docPath, c.viewKeyHex, log)
	if err != nil {
		log.Errorf("loading wallet: %v", err)
		os.Exit(1)
	}

	capability := crypto.NewDefaultCapability()
	engine := attribution.New(capability, node, cfg.ScanCoinbaseTransactions)

	pipe := pipeline.New(node, log, func() ([]crypto.Hash, types.BlockHeight, types.BlockHeight) {
		s := store.Status()
		checkpoints := s.CheckpointsDescending(nil)
		hashes := make([]crypto.Hash, 0, len(checkpoints))
		for _, bh := range checkpoints {
			hashes = append(hashes, bh.Hash)
		}
		return hashes, s.LastKnownHeight + 1, 0
	})

	coord := coordinator.New(coordinator.Config{
		SyncThreadInterval:              cfg.SyncThreadInterval,
		DaemonUpdateInterval:            cfg.DaemonUpdateInterval,
		LockedTransactionsCheckInterval: cfg.LockedTransactionsCheckInterval,
		BlocksPerTick:                   cfg.BlocksPerTick,
	}, store, pipe, engine, node, log)

	if err := coord.Start(ctx); err != nil {
		log.Errorf("starting coordinator: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down")
	coord.Stop()
	if err := store.Save(docPath); err != nil {
		log.Errorf("saving wallet on shutdown: %v", err)
	}
}

func loadOrCreateStore(docPath, viewKeyHex string, log *persist.Logger) (*subwallets.Store, error) {
	if _, err := os.Stat(docPath); err == nil {
		doc, err := persist.LoadWalletDocument(docPath)
		if err != nil {
			return nil, err
		}
		return subwallets.LoadInto(doc, log), nil
	}

	var viewKey crypto.Scalar
	if viewKeyHex != "" {
		vk, err := crypto.ScalarFromString(viewKeyHex)
		if err != nil {
			return nil, types.NewWalletError(types.ErrKeyFormatInvalid, "parsing --view-key: %v", err)
		}
		viewKey = vk
	}
	return subwallets.New(viewKey, 0, log), nil
}
