package controller

import (
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/simulation"
)

// RandomController discards and rebuilds its whole population every step,
// scripting nothing so each train falls back to its own per-tick random
// choice among legal actions (spec.md §4.8 "Random controller").
type RandomController struct {
	*BaseController
}

func NewRandomController(route *simulation.Route, trains []simulation.QueuedTrain, opts Options, logger log.Logger) *RandomController {
	c := &RandomController{BaseController: newBaseController("Random Action Controller", "RND", route, trains, opts, logger)}
	c.self = c

	for len(c.Solutions) < c.Options.SolutionsSize {
		c.createSolution(nil)
	}
	return c
}

func (c *RandomController) takeStepActions() {
	c.Solutions = nil
	for len(c.Solutions) < c.Options.SolutionsSize {
		c.createSolution(nil)
	}

	c.TakeStepActions()
	c.updateMaxSimulationCost()
}

// updateMaxSimulationCost lowers the per-simulation cost ceiling to the
// current best once one is known, so subsequent candidates abort earlier
// once they exceed it (spec.md §4.8 "Random controller", last sentence).
func (c *RandomController) updateMaxSimulationCost() {
	if c.BestSolutionResults == nil {
		return
	}
	if c.BestSolutionCost < c.Options.SimulationOptions.MaxCost {
		c.Options.SimulationOptions.MaxCost = c.BestSolutionCost
	}
}
