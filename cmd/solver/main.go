// Command solver plays full games against an arena server. It drives
// the probabilistic bot: belief updates, constraint propagation,
// configuration enumeration and heat-map targeting.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/config"
	"github.com/Electry/panaxeo-coding-arena-2023/solver"
)

func main() {
	cmd := &cli.Command{
		Name:  "solver",
		Usage: "play battleship arena games with the probabilistic bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Value: "http://localhost:8080",
				Usage: "base URL of the arena server",
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "access token",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "config-dir",
				Value: "configs",
				Usage: "directory with bias tables",
			},
			&cli.BoolFlag{
				Name:  "center-bias",
				Usage: "break heat ties by distance to board centre",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "RNG seed (0 picks one from the clock)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("solver failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cmd.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	seed := uint64(cmd.Int("seed"))
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := solver.NewClient(cmd.String("url"), cmd.String("token"))
	runner := solver.NewRunner(client, configManager.Bias(), rng, cmd.Bool("center-bias"))

	log.Info().Uint64("seed", seed).Str("url", cmd.String("url")).Msg("starting solver")

	totalMoves, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("total_moves", totalMoves).Msg("game complete")
	return nil
}
