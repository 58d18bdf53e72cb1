package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/game"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			seed, _ := cmd.Flags().GetInt64("seed")
			maxTicks, _ := cmd.Flags().GetInt("max-ticks")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")
			logStats, _ := cmd.Flags().GetBool("log-stats")
			workers, _ := cmd.Flags().GetInt("workers")

			if err := config.Init(configPath); err != nil {
				return err
			}
			cfg := config.Cfg().Clone()
			if workers >= 0 {
				cfg.Parallel.Workers = workers
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			sim, err := game.New(cfg, game.Options{
				Seed:        seed,
				LogStats:    logStats,
				OutputDir:   outputDir,
				SnapshotDir: snapshotDir,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("starting simulation",
				"seed", seed,
				"width", cfg.World.Width,
				"height", cfg.World.Height,
				"ants", cfg.Colony.Ants,
				"max_ticks", maxTicks,
				"workers", cfg.Parallel.Workers,
			)

			runLoop(ctx, sim, maxTicks)

			slog.Info("simulation finished",
				"tick", sim.Ticks(),
				"collected", sim.HomeCollected(),
				"food_remaining", sim.FoodRemaining(),
			)
			return sim.Close()
		},
	}

	cmd.Flags().Int64("seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().Int("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	cmd.Flags().String("output-dir", "", "Output directory for CSV logs and config snapshot")
	cmd.Flags().String("snapshot-dir", "", "Directory for bookmark snapshot files")
	cmd.Flags().Bool("log-stats", false, "Log window stats via slog")
	cmd.Flags().Int("workers", -1, "Field compute workers (-1 = use config)")

	return cmd
}

// runLoop ticks until maxTicks is reached or ctx is cancelled.
func runLoop(ctx context.Context, sim *game.Simulation, maxTicks int) {
	for {
		if err := ctx.Err(); err != nil {
			slog.Info("interrupted", "tick", sim.Ticks())
			return
		}
		sim.Tick()
		if maxTicks > 0 && int(sim.Ticks()) >= maxTicks {
			slog.Info("max ticks reached", "tick", sim.Ticks())
			return
		}
	}
}
