package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"marketledger/crypto"
)

// Config carries the marketd daemon settings.
type Config struct {
	RPCAddress   string `toml:"RPCAddress"`
	DataDir      string `toml:"DataDir"`
	IndexerPath  string `toml:"IndexerPath"`
	OwnerAddress string `toml:"OwnerAddress"`
	NetworkName  string `toml:"NetworkName"`
	LogPath      string `toml:"LogPath"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(path, cfg)
	return cfg, nil
}

func applyDefaults(path string, cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = filepath.Join(filepath.Dir(path), "marketd-data")
	}
	if strings.TrimSpace(cfg.IndexerPath) == "" {
		cfg.IndexerPath = filepath.Join(cfg.DataDir, "events.db")
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "market-local"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(path, cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks that the configuration is complete enough to start the
// daemon. The owner address is mandatory: without it no administrator could
// ever block sellers or withdraw fees.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if strings.TrimSpace(c.OwnerAddress) == "" {
		return fmt.Errorf("config: OwnerAddress must not be empty")
	}
	if _, err := c.Owner(); err != nil {
		return fmt.Errorf("config: invalid OwnerAddress: %w", err)
	}
	return nil
}

// Owner decodes the administrator address.
func (c *Config) Owner() ([20]byte, error) {
	var owner [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(c.OwnerAddress))
	if err != nil {
		return owner, err
	}
	copy(owner[:], addr.Bytes())
	return owner, nil
}
