// Package config loads and saves the vault-level settings the core
// recognizes as environment/configuration. Modeled on a LoadVaultConfig
// stat-then-read-then-unmarshal pipeline and a Manager's vaultRoot-scoped
// load/save, switched from a yaml.v2 VaultConfig decoder to yaml.v3 — the
// same encoder a manifest builder uses for anything written back out with
// SetIndent(2) — since this package both reads and rewrites the file, not
// just reads it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/slasshy/vault/internal/keyring"
)

// FileName is the settings file's name within a vault directory.
const FileName = "vault.yaml"

// KDFSettings mirrors its kdf sub-object. Zero fields fall back
// to keyring's authoritative defaults at Load time.
type KDFSettings struct {
	TimeCost uint32 `yaml:"timeCost,omitempty"`
	MemoryCost uint32 `yaml:"memoryCost,omitempty"`
	Parallelism uint8 `yaml:"parallelism,omitempty"`
	HashLength uint32 `yaml:"hashLength,omitempty"`
}

// Settings is the full set of environment/configuration keys the core
// recognizes, plus the compression knob that layers on top of the
// encrypted record body.
type Settings struct {
	VaultDir string `yaml:"vault_dir,omitempty"`
	AutoLockTimeoutMs int `yaml:"auto_lock_timeout_ms"`
	PreferredCarrier string `yaml:"preferred_carrier"`
	DecoyRatio int `yaml:"decoy_ratio"`
	KDF KDFSettings `yaml:"kdf,omitempty"`
	Compression string `yaml:"compression,omitempty"`
}

// Defaults returns the authoritative defaults for every recognized key.
func Defaults() Settings {
	return Settings{
		AutoLockTimeoutMs: 5 * 60 * 1000,
		PreferredCarrier:  "png",
		DecoyRatio:        0,
		KDF:               KDFSettings{
			TimeCost:    keyring.Argon2TimeCost,
			MemoryCost:  keyring.Argon2MemoryCostKB,
			Parallelism: keyring.Argon2Parallelism,
			HashLength:  keyring.MasterKeyLen,
		},
		Compression: "none",
	}
}

// Load reads and validates dir/vault.yaml, returning Defaults if it does
// not exist yet (a brand-new vault directory before Init). Unknown keys
// are silently ignored by yaml.Unmarshal into this typed struct;
// out-of-range values are rejected here.
func Load(dir string) (Settings, error) {
	s := Defaults()
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.VaultDir = dir
			return s, nil
		}
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	s.VaultDir = dir
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes s to dir/vault.yaml using the encode-with-indent-2
// convention.
func Save(dir string, s Settings) error {
	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}

// Validate rejects out-of-range values.
func (s Settings) Validate() error {
	if s.AutoLockTimeoutMs < 0 {
		return fmt.Errorf("config: auto_lock_timeout_ms must be >= 0, got %d", s.AutoLockTimeoutMs)
	}
	switch s.PreferredCarrier {
	case "png", "jpg":
	default:
		return fmt.Errorf("config: preferred_carrier must be png or jpg, got %q", s.PreferredCarrier)
	}
	if s.DecoyRatio < 0 {
		return fmt.Errorf("config: decoy_ratio must be >= 0, got %d", s.DecoyRatio)
	}
	switch s.Compression {
	case "", "none", "gzip", "zstd", "lz4":
	default:
		return fmt.Errorf("config: unknown compression algorithm %q", s.Compression)
	}
	if s.KDF.TimeCost != 0 || s.KDF.MemoryCost != 0 || s.KDF.Parallelism != 0 {
		params := keyring.KDFParams{
			TimeCost:     orDefault(s.KDF.TimeCost, keyring.Argon2TimeCost),
			MemoryCostKB: orDefault(s.KDF.MemoryCost, keyring.Argon2MemoryCostKB),
			Parallelism:  orDefaultU8(s.KDF.Parallelism, keyring.Argon2Parallelism),
		}
		if err := params.Validate(); err != nil {
			return fmt.Errorf("config: kdf: %w", err)
		}
	}
	return nil
}

func orDefault(v, d uint32) uint32 {
	if v == 0 {
		return d
	}
	return v
}

func orDefaultU8(v, d uint8) uint8 {
	if v == 0 {
		return d
	}
	return v
}

// CarrierType resolves PreferredCarrier to the stego package's type, kept
// as a string at the YAML boundary per its literal {png, jpg}.
func (s Settings) CarrierType() string {
	if s.PreferredCarrier == "" {
		return "png"
	}
	return s.PreferredCarrier
}
