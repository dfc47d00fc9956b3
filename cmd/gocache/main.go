package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gocache/internal/config"
)

// Build information set via ldflags
var version = "dev"

// app carries what every subcommand needs once flags and config are loaded.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"capacity":      "cache.capacity",
	"strategy":      "cache.strategy",
	"cleanup-delay": "cache.cleanup_delay",
	"log-level":     "logging.level",
	"metrics-addr":  "metrics.addr",
	"workers":       "bench.workers",
	"ops":           "bench.ops",
	"key-space":     "bench.key_space",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var cfgFile string

	root := &cobra.Command{
		Use:           "gocache",
		Short:         "Bounded LRU cache demo and load generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := config.New(cfgFile)
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			lvl, err := cfg.Logging.SlogLevel()
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./gocache.yaml if present)")
	pf.Int("capacity", 0, "maximum number of cache entries")
	pf.String("strategy", "", "eviction strategy: locking or threaded")
	pf.Duration("cleanup-delay", 0, "delay before a threaded trim pass")
	pf.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newDemoCmd(a), newBenchCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gocache %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
