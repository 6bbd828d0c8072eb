// Package main provides the portgraph CLI application
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/flowgraph/portgraph/internal/config"
	"github.com/flowgraph/portgraph/internal/demo"
	"github.com/flowgraph/portgraph/internal/infrastructure/logging"
	"github.com/flowgraph/portgraph/pkg/portgraph"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "demo"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "portgraph %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		return 0
	case "demo":
		steps := 8
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fmt.Fprintf(stderr, "invalid step count %q\n", args[1])
				return 2
			}
			steps = n
		}
		if err := runDemo(ctx, steps, stdout); err != nil {
			fmt.Fprintf(stderr, "demo failed: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintln(stderr, "usage: portgraph [version | demo [steps]]")
		return 2
	}
}

func runDemo(ctx context.Context, steps int, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, Version, stdout)

	rt := portgraph.NewRuntime(portgraph.Config{Logger: logger, NotifyDepth: cfg.NotifyDepthLimit})
	defer rt.Unload()

	board, err := demo.Load(ctx, rt, logger)
	if err != nil {
		return err
	}
	for i := 0; i < steps; i++ {
		if err := board.Step(ctx, i); err != nil {
			return err
		}
	}
	if err := board.Nudge(ctx, 0); err != nil {
		return err
	}
	slider, _ := board.Slider()
	logger.Info("demo finished", "steps", steps, "slider", slider)
	return nil
}
