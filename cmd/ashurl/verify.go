package main

import (
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/Borislavv/go-ash-urlcache/internal/gateway"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <url>",
	Short: "Check a URL minted by the local gateway and print its object key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadApp()
		if err != nil {
			return err
		}
		if cfg.Gateway.Kind != config.GatewayLocal {
			return fmt.Errorf("verify needs the %q gateway, got %q", config.GatewayLocal, cfg.Gateway.Kind)
		}

		local := gateway.NewLocal(cfg.Gateway.Endpoint, cfg.Gateway.Bucket, cfg.Gateway.Secret, nil)
		key, err := local.Verify(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
		return err
	},
}
