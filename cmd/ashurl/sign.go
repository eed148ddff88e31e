package main

import (
	"encoding/json"
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/internal/gateway"
	"github.com/Borislavv/go-ash-urlcache/internal/minter"
	"github.com/Borislavv/go-ash-urlcache/internal/store"
	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"io"
	"os"
	"time"
)

var signCmd = &cobra.Command{
	Use:   "sign <object-key>",
	Short: "Mint one signed URL with the configured gateway and validity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadApp()
		if err != nil {
			return err
		}
		signer, err := gateway.New(cfg.Gateway)
		if err != nil {
			return err
		}

		clk := clock.New()
		logger := newLogger(cfg.Logging, os.Stderr)
		m := minter.New(cmd.Context(), &cfg.Cache.Signing, logger, clk, signer, store.New(clk))

		res := m.Mint(cmd.Context(), args[0])
		if res.Err != nil {
			return res.Err
		}
		if res.URL == "" {
			return fmt.Errorf("nothing to sign for %q", args[0])
		}
		return printSigned(cmd.OutOrStdout(), res.ObjectKey, res.URL, res.ExpiresAt)
	},
}

func printSigned(w io.Writer, objectKey, url string, expiresAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]string{
		"object_key": objectKey,
		"url":        url,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}
