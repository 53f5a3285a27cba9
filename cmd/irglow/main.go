package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/irglow"
	"libdb.so/irglow/bridge"
)

var (
	config   = "irglow.toml"
	revision = ""
	verbose  = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.StringVarP(&revision, "revision", "r", revision, "override the hardware revision of the configuration")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	if revision != "" {
		cfg.Revision = revision
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	hw, err := cfg.HardwareConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	b, err := bridge.Open(cfg.Device, cfg.Baud, bridge.Config{
		NumLEDs:       hw.StripSize,
		SensorTimeout: time.Duration(cfg.SensorTimeout),
	}, slog.Default().With("component", "bridge"))
	if err != nil {
		return fmt.Errorf("failed to open bridge at %s: %w", cfg.Device, err)
	}

	d, err := irglow.NewDaemon(hw, irglow.Peripherals{
		IR:          b,
		Strip:       b,
		Thermometer: b,
		Watchdog:    b,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return b.Run(ctx) })
	errg.Go(func() error { return d.Run(ctx) })

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

func readConfig() (*irglow.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !pflag.CommandLine.Changed("config") {
			slog.Info("no configuration file, using defaults", "path", config)
			return irglow.ParseConfig(strings.NewReader(""))
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return irglow.ParseConfig(f)
}
