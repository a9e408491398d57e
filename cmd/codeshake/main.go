package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/codeshake/internal/adapters/log"
	"github.com/bft-labs/codeshake/internal/app"
	"github.com/bft-labs/codeshake/internal/cliconfig"
	"github.com/bft-labs/codeshake/internal/domain"
	"github.com/bft-labs/codeshake/internal/ports"
)

const longHelp = `
Run the split-code handshake against the interview service.

  1. POST a greeting and our callback URL; the response carries part1.
  2. Wait for the third party to POST part2 to the callback endpoint.
  3. GET the service with code=part1+part2 and log the final message.

The callback endpoint keeps serving until the process is stopped.
Configure via $HOME/.codeshake/config.toml, a .env file, CODESHAKE_* env
vars or flags (in increasing order of precedence).
`

var exampleUsage = strings.TrimSpace(`
  WEBHOOK_URL=https://my-tunnel.example.com/webhook codeshake
  codeshake --webhook-url https://my-tunnel.example.com/webhook --listen 0.0.0.0:8000 --once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath, envPath string

	root := &cobra.Command{
		Use:           "codeshake",
		Short:         "Run a three-phase split-code handshake with a callback",
		Long:          strings.TrimSpace(longHelp),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// .env fills the environment without overriding it; env vars
			// override the file config and are overridden by flags.
			if err := cliconfig.LoadDotEnv(envPath); err != nil {
				return err
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
			}

			log := cliconfig.Logger(cfg.LogLevel)
			log.Info().Interface("config", cfg).Msg("configuration")

			logger := logAdapter.NewZerologAdapterWithLogger(log)
			crash := newCrashNotifier()
			svc, err := app.New(cfg.ServiceConfig(),
				app.WithLogger(logger),
				app.WithEventHandler(app.NewLogEvents(logger.With(ports.String("component", "handshake")))),
				app.WithStateEmitter(crash),
			)
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}

			return awaitShutdown(log, svc, sigCh, crash.Crashed(), cfg.Once)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.codeshake/config.toml)")
	root.Flags().StringVar(&envPath, "env-file", cliconfig.DefaultDotEnvPath, "dotenv file loaded into the environment if present")
	root.Flags().StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "public callback URL advertised in phase 1 (required)")
	root.Flags().StringVar(&cfg.RemoteURL, "remote-url", cfg.RemoteURL, "interview service endpoint")
	if err := root.Flags().MarkHidden("remote-url"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	root.Flags().StringVar(&cfg.Greeting, "greeting", cfg.Greeting, "phase-1 greeting")
	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address the callback server listens on")
	root.Flags().StringVar(&cfg.CallbackPath, "callback-path", cfg.CallbackPath, "route the callback is served on")
	root.Flags().DurationVar(&cfg.CallbackTimeout, "callback-timeout", cfg.CallbackTimeout, "how long to wait for the second fragment")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout for outbound calls")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "exit once the handshake reaches a terminal phase")

	if err := root.Execute(); err != nil {
		log := cliconfig.Logger(cfg.LogLevel)
		log.Error().Err(err).Msg("codeshake")
		os.Exit(1)
	}
}

