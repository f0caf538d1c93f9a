package solver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/config"
	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

// Runner plays maps against a remote arena until the game's map count
// is exhausted.
type Runner struct {
	client     *Client
	bias       *config.Bias
	rng        *rand.Rand
	centerBias bool
}

func NewRunner(client *Client, bias *config.Bias, rng *rand.Rand, centerBias bool) *Runner {
	return &Runner{client: client, bias: bias, rng: rng, centerBias: centerBias}
}

// Run plays maps until none remain or the context is cancelled. It
// returns the total number of moves spent.
func (r *Runner) Run(ctx context.Context) (int, error) {
	totalMoves := 0
	for {
		resp, err := r.client.Status(ctx)
		if err != nil {
			return totalMoves, err
		}

		moves, last, err := r.playMap(ctx, resp)
		totalMoves += moves
		if err != nil {
			return totalMoves, err
		}

		log.Info().
			Int("map_id", last.MapID).
			Int("moves", moves).
			Int("maps_left", last.MapCount).
			Int("total_moves", totalMoves).
			Msg("map finished")

		if last.MapCount == 0 {
			return totalMoves, nil
		}
		if ctx.Err() != nil {
			return totalMoves, ctx.Err()
		}
	}
}

// playMap drives one board from the given snapshot to completion.
func (r *Runner) playMap(ctx context.Context, resp *service.FireResponse) (int, *service.FireResponse, error) {
	belief := NewBelief()
	enumerator := NewEnumerator(r.bias, r.rng)
	policy := NewPolicy(r.centerBias, r.rng)

	if err := r.observe(belief, enumerator, resp); err != nil {
		return 0, resp, err
	}

	moves := 0
	for !resp.Finished {
		if ctx.Err() != nil {
			return moves, resp, ctx.Err()
		}

		shot, ok := policy.NextShot(belief)
		if !ok {
			return moves, resp, fmt.Errorf("%w: no shot candidates on unfinished map %d", ErrDeduction, resp.MapID)
		}

		var err error
		if resp.AvengerAvailable {
			resp, err = r.fireAvenger(ctx, belief, policy, shot)
		} else {
			resp, err = r.client.Fire(ctx, shot.X, shot.Y)
		}
		if err != nil {
			return moves, resp, err
		}
		moves = resp.MoveCount

		if err := r.observe(belief, enumerator, resp); err != nil {
			return moves, resp, err
		}
	}
	return moves, resp, nil
}

// fireAvenger spends the avenger on the chosen cell and feeds an
// IRON_MAN hint back into the belief.
func (r *Runner) fireAvenger(ctx context.Context, belief *Belief, policy *Policy, shot engine.Point) (*service.FireResponse, error) {
	avenger := policy.ChooseAvenger(belief)
	resp, err := r.client.FireAvenger(ctx, shot.X, shot.Y, avenger)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("avenger", avenger.String()).Int("x", shot.X).Int("y", shot.Y).Msg("avenger spent")

	if avenger == engine.AvengerIronMan {
		for _, result := range resp.AvengerResult {
			// mapPoint.x is the row (engine y), mapPoint.y the column.
			if err := belief.ApplyIronManHint(result.MapPoint.Y, result.MapPoint.X); err != nil {
				return nil, err
			}
		}
	}
	return &resp.FireResponse, nil
}

// observe merges a response into the belief, propagates deductions and
// refreshes the heat-map.
func (r *Runner) observe(belief *Belief, enumerator *Enumerator, resp *service.FireResponse) error {
	if err := belief.UpdateFromResponse(resp); err != nil {
		return err
	}
	if resp.Finished {
		return nil
	}
	if err := belief.Propagate(); err != nil {
		return err
	}
	return enumerator.Refresh(belief)
}
