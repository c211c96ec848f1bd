package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	"github.com/slasshy/vault/internal/cloud"
	"github.com/slasshy/vault/internal/locallog"
	"github.com/slasshy/vault/internal/vaulterrors"
	"github.com/slasshy/vault/internal/vaultindex"
)

// passphraseEnvVar lets scripted/CI invocations skip the interactive
// prompt, the same escape hatch a GetPassphraseForVault helper gives
// stdin/file/env sources priority over promptui.
const passphraseEnvVar = "SLASSHY_PASSPHRASE"

func resolvePassphrase(label string) (string, error) {
	if v := os.Getenv(passphraseEnvVar); v != "" {
		return v, nil
	}
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: func(input string) error {
			if len(input) < 1 {
				return fmt.Errorf("passphrase must not be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func cloudStore() cloud.Store {
	switch cloudFlag {
	case "none", "":
		return nil
	default:
		return cloud.NewMemory()
	}
}

// openVault opens the vault rooted at --vault-dir with the configured
// cloud collaborator attached.
func openVault() (*vaultindex.Vault, error) {
	var opts []vaultindex.Option
	if store := cloudStore(); store != nil {
		opts = append(opts, vaultindex.WithCloudStore(store))
	}
	return vaultindex.Open(vaultDirFlag, opts...)
}

// openAndUnlock opens the vault and unlocks it with a passphrase taken
// from SLASSHY_PASSPHRASE or an interactive prompt. Callers should defer
// v.Lock to zeroize keys as soon as the command is done, mirroring the
// process-exit zeroization describes.
func openAndUnlock() (*vaultindex.Vault, error) {
	v, err := openVault()
	if err != nil {
		return nil, err
	}
	passphrase, err := resolvePassphrase("Vault passphrase")
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	if err := v.Unlock(passphrase); err != nil {
		logAndReport(err)
		return nil, err
	}
	return v, nil
}

// logAndReport routes the full error to the vault's local log sink and
// prints only a generic, untrusted-surface-safe message for err.
func logAndReport(err error) {
	if err == nil {
		return
	}
	if l, lerr := locallog.Open(vaultDirFlag); lerr == nil {
		_ = l.Append(locallog.Event{Timestamp: time.Now().UnixMilli(), Kind: "error", Message: err.Error()})
	}
	color.Red("error: %s", vaulterrors.Public(err))
}
