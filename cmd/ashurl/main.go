package main

import (
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   "ashurl",
		Short: "Keep journal entry images displayable with auto-renewed signed URLs",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile)
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ashurl.yaml", "path to the yaml config")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with secrets, skipped when missing")
	rootCmd.AddCommand(serveCmd, signCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnv loads the dotenv file without overriding variables already set.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadApp() (*config.App, error) {
	cfg, err := config.LoadApp(cfgFile)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingCfg, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.DateTime})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h).With(slog.String("service", "ashurl"))
}
