// Command lighter runs example transaction flows against a Lighter exchange.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/banky/go-lighter/exchange"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile   string
	useStream bool
	verify    bool
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "lighter",
		Short:         "Sign and submit Lighter transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "file to load LIGHTER_* variables from")
	root.PersistentFlags().BoolVar(&opts.useStream, "stream", false, "submit over the websocket stream instead of HTTP")
	root.PersistentFlags().BoolVar(&opts.verify, "verify-keys", false, "compare api keys with the exchange before trading")

	root.AddCommand(
		newOrdersCmd(opts),
		newBatchCmd(opts),
		newAccountCmd(opts),
		newNoncesCmd(opts),
	)
	return root
}

// connect loads configuration and builds a ready exchange client
func connect(ctx context.Context, opts *rootOptions) (*exchange.Exchange, *Config, error) {
	if err := godotenv.Load(opts.envFile); err != nil {
		log.Warn().Str("file", opts.envFile).Msg("no env file found, using environment variables")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ex, err := exchange.New(ctx, exchange.Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		AccountIndex: cfg.AccountIndex,
		ApiKeyStart:  cfg.ApiKeyStart,
		ApiKeyEnd:    cfg.ApiKeyEnd,
		PrivateKeys:  cfg.PrivateKeys,
		UseStream:    opts.useStream,
		VerifyKeys:   opts.verify,
		Logger:       log.Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := ex.CheckReady(ctx); err != nil {
		ex.Close()
		return nil, nil, err
	}

	log.Info().
		Str("url", cfg.BaseURL).
		Int64("account", cfg.AccountIndex).
		Uint8("key_start", cfg.ApiKeyStart).
		Uint8("key_end", cfg.ApiKeyEnd).
		Bool("stream", opts.useStream).
		Msg("client ready")

	return ex, cfg, nil
}
