package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keepctl/keepctl/internal/crypto"
)

// Config holds application configuration
type Config struct {
	VaultPath             string `json:"vault_path"`
	ClipboardClearSeconds int    `json:"clipboard_clear_seconds"`
	KDFMemoryMiB          uint32 `json:"kdf_memory_mib,omitempty"`
	KDFTime               uint32 `json:"kdf_time,omitempty"`
	KDFParallelism        uint8  `json:"kdf_parallelism,omitempty"`
	ConfigPath            string `json:"-"` // Not stored, just for reference
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		VaultPath:             filepath.Join(homeDir, ".keepctl", "vault.keep"),
		ClipboardClearSeconds: 20,
		ConfigPath:            filepath.Join(homeDir, ".keepctl", "config.json"),
	}
}

// KDFParams returns the default KDF parameters with any configured overrides
// applied. Used for vault creation and master rotation only; opening an
// existing vault always uses the parameters in its header.
func (c *Config) KDFParams() crypto.Params {
	p := crypto.DefaultParams()
	if c.KDFMemoryMiB > 0 {
		p.MemoryKiB = c.KDFMemoryMiB * 1024
	}
	if c.KDFTime > 0 {
		p.Time = c.KDFTime
	}
	if c.KDFParallelism > 0 {
		p.Parallelism = c.KDFParallelism
	}
	return p
}

// LoadConfig loads configuration from file
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.ConfigPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
