package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/BTBurke/zonesim"
)

func main() {
	opts, err := zonesim.ParseCommandLine()
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Printf("Could not parse configuration: %s\n\nUse zonesim --help for options\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, errs := zonesim.NewConfig(opts...)
	if len(errs) > 0 {
		fmt.Println("Error in config:")
		for _, e := range errs {
			fmt.Println(e)
		}
		os.Exit(1)
	}

	log, err := zonesim.NewLogger(cfg.Verbose)
	if err != nil {
		fmt.Println("Could not create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m, err := zonesim.Run(ctx, cfg, log)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Info("done", zap.String("run_id", m.RunID), zap.Int64("seed", m.Seed), zap.Int("metrics", len(m.Metrics)))
}
