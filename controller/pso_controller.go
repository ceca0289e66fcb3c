package controller

import (
	"math"
	"math/rand"

	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/simulation"
)

// particle holds one candidate's per-train position/velocity vectors over
// the action space, plus its personal-best bookkeeping (spec.md §4.8 "PSO
// controller").
type particle struct {
	positions     map[string][]float64
	velocities    map[string][]float64
	bestPositions map[string][]float64
	bestCost      float64
	solution      *simulation.Simulation
}

// PSOController treats each train's action history as a position vector
// over a scalar encoding of the action set, and evolves it with the
// standard inertia/personal/global velocity update (spec.md §4.8 "PSO
// controller"), grounded on
// original_source/controller/particle_swarm_optimization/controller.py.
type PSOController struct {
	*BaseController
	rng *rand.Rand

	positionsMap map[simulation.ActionKind]float64

	particles      []*particle
	bestGlobal     *particle
	bestGlobalCost float64
}

func NewPSOController(route *simulation.Route, trains []simulation.QueuedTrain, opts Options, logger log.Logger) *PSOController {
	c := &PSOController{
		BaseController: newBaseController("Particle Swarm Optimization Controller", "PSO", route, trains, opts, logger),
		rng:            rand.New(rand.NewSource(opts.Seed)),
		bestGlobalCost: math.Inf(1),
	}
	c.self = c
	c.positionsMap = calculatePositionsMap()
	return c
}

func calculatePositionsMap() map[simulation.ActionKind]float64 {
	m := make(map[simulation.ActionKind]float64, len(simulation.AllActions))
	n := float64(len(simulation.AllActions))
	for i, k := range simulation.AllActions {
		m[k] = float64(i) / n
	}
	return m
}

func (c *PSOController) takeStepActions() {
	if len(c.particles) == 0 {
		// First step: run a random set of solutions to seed the particle swarm.
		for len(c.Solutions) < c.Options.SolutionsSize {
			c.createSolution(nil)
		}
		c.TakeStepActions()
		c.readParticles(c.Solutions)
		c.updateParticlesBests()
		return
	}

	c.Solutions = nil
	for _, p := range c.particles {
		c.updateParticleVelocitiesAndPositions(p)
		c.parseParticlePositions(p)
	}
	c.TakeStepActions()
	c.updateParticlesBests()
}

func (c *PSOController) trainPosition(t *simulation.Train) []float64 {
	out := make([]float64, 0, len(t.ActionsHistory))
	for _, entry := range t.ActionsHistory {
		kind, err := simulation.FindAction(entry.ActionName)
		if err == nil {
			out = append(out, c.positionsMap[kind])
		}
	}
	return out
}

func (c *PSOController) randomVelocity(t *simulation.Train) []float64 {
	out := make([]float64, 0, len(t.ActionsHistory))
	for _, entry := range t.ActionsHistory {
		kind, err := simulation.FindAction(entry.ActionName)
		v := c.rng.Float64()
		if err == nil {
			v -= c.positionsMap[kind]
		}
		out = append(out, v)
	}
	return out
}

func (c *PSOController) readParticles(solutions []*simulation.Simulation) {
	c.particles = c.particles[:0]
	for _, s := range solutions {
		p := &particle{
			positions:  map[string][]float64{},
			velocities: map[string][]float64{},
			bestCost:   math.Inf(1),
			solution:   s,
		}
		for _, t := range s.Dispatcher.Trains {
			p.positions[t.Prefix] = c.trainPosition(t)
			p.velocities[t.Prefix] = c.randomVelocity(t)
		}
		c.particles = append(c.particles, p)
	}
}

func (c *PSOController) updateParticlesBests() {
	for _, p := range c.particles {
		cost := p.solution.AccumulatedCost
		if cost < p.bestCost {
			p.bestCost = cost
			p.bestPositions = p.positions
		}
		if cost < c.bestGlobalCost {
			c.bestGlobalCost = cost
			c.bestGlobal = p
		}
	}
}

// personalVelocityTerm computes the personal-acceleration term. It
// preserves original_source's quirk, called out in spec.md §9, of reading
// the "current position" value from the particle's best_positions rather
// than its live positions (only the existence/length guard uses positions).
func (c *PSOController) personalVelocityTerm(p *particle, prefix string, idx int) float64 {
	best := 0.0
	if bp, ok := p.bestPositions[prefix]; ok && len(bp) > idx {
		best = bp[idx]
	}
	current := 0.0
	if pos, ok := p.positions[prefix]; ok && len(pos) > idx {
		if bp, ok2 := p.bestPositions[prefix]; ok2 && len(bp) > idx {
			current = bp[idx]
		}
	}
	return c.Options.PersonalAccelerationCoefficient * c.rng.Float64() * (best - current)
}

// globalVelocityTerm computes the global-acceleration term, preserving
// original_source's second quirk: the existence guard checks the global
// best particle's best_positions, but the value actually read back is the
// particle's own best_positions (spec.md §9 calls out preserving this
// as-is rather than "fixing" it).
func (c *PSOController) globalVelocityTerm(p *particle, prefix string, idx int) float64 {
	best := 0.0
	if c.bestGlobal != nil {
		if _, ok := c.bestGlobal.bestPositions[prefix]; ok {
			if bp, ok2 := p.bestPositions[prefix]; ok2 && len(bp) > idx {
				best = bp[idx]
			}
		}
	}
	current := 0.0
	if pos, ok := p.positions[prefix]; ok && len(pos) > idx {
		if bp, ok2 := p.bestPositions[prefix]; ok2 && len(bp) > idx {
			current = bp[idx]
		}
	}
	return c.Options.GlobalAccelerationCoefficient * c.rng.Float64() * (best - current)
}

func (c *PSOController) updateParticleVelocitiesAndPositions(p *particle) {
	newVelocities := make(map[string][]float64, len(p.velocities))
	for prefix, velocities := range p.velocities {
		nv := make([]float64, len(velocities))
		for i := range velocities {
			nv[i] = c.Options.InertialParameter*velocities[i] +
				c.personalVelocityTerm(p, prefix, i) +
				c.globalVelocityTerm(p, prefix, i)
		}
		newVelocities[prefix] = nv
	}

	for prefix, positions := range p.positions {
		np := make([]float64, len(positions))
		for i := range positions {
			np[i] = positions[i] + newVelocities[prefix][i]
		}
		p.positions[prefix] = np
	}
	p.velocities = newVelocities
}

// actionFromPosition wraps position into [0, maxIndex] and maps it back to
// the nearest action by scalar distance, ties broken by AllActions order.
func (c *PSOController) actionFromPosition(position float64) simulation.ActionKind {
	maxPosition := 0.0
	for _, k := range simulation.AllActions {
		if v := c.positionsMap[k]; v > maxPosition {
			maxPosition = v
		}
	}
	for position > maxPosition {
		position -= maxPosition
	}
	for position < 0 {
		position += maxPosition
	}

	closest := simulation.AllActions[0]
	closestDistance := math.Inf(1)
	for _, k := range simulation.AllActions {
		d := math.Abs(c.positionsMap[k] - position)
		if d < closestDistance {
			closestDistance = d
			closest = k
		}
	}
	return closest
}

func (c *PSOController) parseParticlePositions(p *particle) {
	genes := make(map[string][]simulation.ActionKind, len(p.positions))
	for prefix, positions := range p.positions {
		actions := make([]simulation.ActionKind, len(positions))
		for i, pos := range positions {
			actions[i] = c.actionFromPosition(pos)
		}
		genes[prefix] = actions
	}
	c.createSolution(genes)
}
