package main

import (
	"flag"
	"os"

	"marketledger/config"
	"marketledger/core"
	"marketledger/crypto"
	"marketledger/observability/logging"
	"marketledger/rpc"
	"marketledger/services/indexer"
	"marketledger/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the marketd config file")
	flag.Parse()

	env := os.Getenv("MARKETD_ENV")
	logger := logging.Setup("marketd", env, "")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}
	if cfg.LogPath != "" {
		logger = logging.Setup("marketd", env, cfg.LogPath)
	}
	owner, err := cfg.Owner()
	if err != nil {
		logger.Error("invalid owner address", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(db, owner)

	ix, err := indexer.Open(cfg.IndexerPath, logger)
	if err != nil {
		logger.Error("failed to open event indexer", "path", cfg.IndexerPath, "err", err)
		os.Exit(1)
	}
	defer ix.Close()
	node.Events().Subscribe(ix)

	vault := node.Vault()
	logger.Info("marketd starting",
		"network", cfg.NetworkName,
		"rpc", cfg.RPCAddress,
		"data", cfg.DataDir,
		"owner", cfg.OwnerAddress,
		"vault", crypto.NewAddress(crypto.MktPrefix, vault[:]).String(),
	)

	server := rpc.NewServer(node, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "err", err)
		os.Exit(1)
	}
}
