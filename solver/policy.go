package solver

import (
	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

// thorCutoff is the discovered-cell count below which a broadcast
// reveal still pays off.
const thorCutoff = 40

// Policy selects the next shot from the heat-map and decides how to
// spend an available avenger.
type Policy struct {
	// CenterBias breaks heat ties by distance to the board centre
	// instead of uniformly at random.
	CenterBias bool

	rng *rand.Rand
}

func NewPolicy(centerBias bool, rng *rand.Rand) *Policy {
	return &Policy{CenterBias: centerBias, rng: rng}
}

// NextShot returns the unfired cell with the maximum heat. The second
// return value is false when no cell remains, which means the game
// state is inconsistent.
func (p *Policy) NextShot(b *Belief) (engine.Point, bool) {
	best := HeatmapNoValue
	var ties []engine.Point

	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if b.Original(x, y) != engine.CellUnknown {
				continue
			}
			heat := b.Heat(x, y)
			if heat <= HeatmapNoValue {
				continue
			}
			switch {
			case heat > best:
				best = heat
				ties = ties[:0]
				ties = append(ties, engine.Point{X: x, Y: y})
			case heat == best:
				ties = append(ties, engine.Point{X: x, Y: y})
			}
		}
	}
	if len(ties) == 0 {
		return engine.Point{}, false
	}
	if p.CenterBias {
		return p.closestToCenter(ties), true
	}
	return ties[p.intn(len(ties))], true
}

func (p *Policy) closestToCenter(ties []engine.Point) engine.Point {
	const center = (engine.BoardSize - 1) / 2.0
	best := ties[0]
	bestDist := centerDistance(best, center)
	for _, t := range ties[1:] {
		if d := centerDistance(t, center); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

func centerDistance(p engine.Point, center float64) float64 {
	dx := float64(p.X) - center
	dy := float64(p.Y) - center
	return dx*dx + dy*dy
}

// ChooseAvenger picks the avenger for the next fire: HULK to finish a
// wounded ship, THOR to fan out early, IRON_MAN to localize the
// smallest ship when stuck.
func (p *Policy) ChooseAvenger(b *Belief) engine.Avenger {
	targetMode, _ := b.TargetMode()
	if targetMode {
		return engine.AvengerHulk
	}
	if b.DiscoveredCount() < thorCutoff {
		return engine.AvengerThor
	}
	return engine.AvengerIronMan
}

func (p *Policy) intn(n int) int {
	if p.rng != nil {
		return p.rng.Intn(n)
	}
	return rand.Intn(n)
}
