package service

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cmsgo/app/config"
	"cmsgo/app/repositories"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"
	"pkt.systems/pslog"
)

// ChecksumExt is appended to a backup file name for its sha3-256 sidecar.
const ChecksumExt = ".sha3"

var errCancelled = errors.New("operation cancelled")

func requireBadger(cfg *config.Config) error {
	if cfg.Store != repositories.BackendBadger {
		return fmt.Errorf("command only supports the badger store, configured store is %q", cfg.Store)
	}
	return nil
}

// confirm asks a yes/no question on the command's stdin.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func newInitCommand(opts *rootOptions, logger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty badger store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			if err := requireBadger(cfg); err != nil {
				return err
			}
			return initStore(cmd, cfg.BadgerPath, logger)
		},
	}
}

func initStore(cmd *cobra.Command, path string, logger pslog.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("store already exists at %s, run clean first to reinitialize", path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	db, err := repositories.OpenBadger(path, false, logger)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	if err := db.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Store initialized at %s\n", path)
	return nil
}

func newCleanCommand(opts *rootOptions, logger pslog.Logger) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the badger store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			if err := requireBadger(cfg); err != nil {
				return err
			}
			return cleanStore(cmd, cfg.BadgerPath, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func cleanStore(cmd *cobra.Command, path string, yes bool) error {
	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "Store is already clean (does not exist)")
		return nil
	}
	if !yes && !confirm(cmd, "Are you sure you want to delete the store? This cannot be undone.") {
		return errCancelled
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clean store: %w", err)
	}
	fmt.Fprintln(out, "Store cleaned")
	return nil
}

func newBackupCommand(opts *rootOptions, logger pslog.Logger) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a badger backup and its sha3-256 checksum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			if err := requireBadger(cfg); err != nil {
				return err
			}
			if dir == "" {
				dir = filepath.Join(filepath.Dir(filepath.Clean(cfg.BadgerPath)), "backups")
			}
			file, err := backupStore(cfg.BadgerPath, dir, time.Now(), logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store backed up to %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default: <badger_path>/../backups)")
	return cmd
}

// backupStore writes a full backup to dir and returns its path.
func backupStore(path, dir string, now time.Time, logger pslog.Logger) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("no store exists at %s", path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	db, err := repositories.OpenBadger(path, false, logger)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", now.Unix()))
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	h := sha3.New256()
	if _, err := db.Backup(io.MultiWriter(f, h), 0); err != nil {
		return "", fmt.Errorf("backup store: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", err
	}
	if err := writeChecksum(backupFile, h); err != nil {
		return "", err
	}
	return backupFile, nil
}

func writeChecksum(file string, h hash.Hash) error {
	line := fmt.Sprintf("%s  %s\n", hex.EncodeToString(h.Sum(nil)), filepath.Base(file))
	if err := os.WriteFile(file+ChecksumExt, []byte(line), 0o644); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}
	return nil
}

// verifyChecksum compares file against its sidecar.
func verifyChecksum(file string) error {
	raw, err := os.ReadFile(file + ChecksumExt)
	if err != nil {
		return fmt.Errorf("read checksum: %w", err)
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return fmt.Errorf("checksum file %s is empty", file+ChecksumExt)
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	h := sha3.New256()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash backup: %w", err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != fields[0] {
		return fmt.Errorf("checksum mismatch for %s: want %s, got %s", file, fields[0], got)
	}
	return nil
}

func newRestoreCommand(opts *rootOptions, logger pslog.Logger) *cobra.Command {
	var (
		yes      bool
		noVerify bool
	)
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the badger store with a verified backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			if err := requireBadger(cfg); err != nil {
				return err
			}
			if err := restoreStore(cmd, cfg.BadgerPath, args[0], yes, !noVerify, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Store restored")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace an existing store without asking")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the checksum check")
	return cmd
}

func restoreStore(cmd *cobra.Command, path, backupFile string, yes, verify bool, logger pslog.Logger) (err error) {
	fi, err := os.Stat(backupFile)
	if err != nil {
		return fmt.Errorf("backup file: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}
	if verify {
		if err := verifyChecksum(backupFile); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil {
		if !yes && !confirm(cmd, "Existing store found. Do you want to replace it?") {
			return errCancelled
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove existing store: %w", err)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	db, err := repositories.OpenBadger(path, false, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		return err
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore panicked: %v", r)
		}
	}()
	if err := db.Load(f, 256); err != nil {
		return fmt.Errorf("restore store: %w", err)
	}
	return nil
}
