package controller

import (
	"math"
	"math/rand"
	"sort"

	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/simulation"
)

// GeneticController runs selection, crossover and mutation over the
// previous step's finished solutions before handing off to the shared
// worker-pool step (spec.md §4.8 "Genetic controller"), grounded on
// original_source/controller/genetic_algorithm/controller.py.
type GeneticController struct {
	*BaseController
	rng *rand.Rand
}

func NewGeneticController(route *simulation.Route, trains []simulation.QueuedTrain, opts Options, logger log.Logger) *GeneticController {
	c := &GeneticController{
		BaseController: newBaseController("Genetic Algorithm Controller", "GA", route, trains, opts, logger),
		rng:            rand.New(rand.NewSource(opts.Seed)),
	}
	c.self = c

	for len(c.Solutions) < c.Options.SolutionsSize {
		c.createSolution(nil)
	}
	return c
}

func (c *GeneticController) takeStepActions() {
	var anyFinished bool
	for _, s := range c.Solutions {
		if s.HasFinished {
			anyFinished = true
			break
		}
	}
	if anyFinished {
		c.applySelectionOperator()
		c.applyCrossoverOperator()
		c.applyMutationOperator()
	}

	c.TakeStepActions()
}

// applySelectionOperator keeps the selection_preserve_ratio fraction with
// lowest accumulated cost.
func (c *GeneticController) applySelectionOperator() {
	ordered := append([]*simulation.Simulation{}, c.Solutions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AccumulatedCost < ordered[j].AccumulatedCost
	})

	totalPreserved := int(math.Round(c.Options.SelectionPreserveRatio * float64(len(ordered))))
	if totalPreserved > len(ordered) {
		totalPreserved = len(ordered)
	}
	removed := len(ordered) - totalPreserved
	c.Solutions = ordered[:totalPreserved]

	c.logger.Info("selection operator removed individuals", "removed", removed, "from", len(ordered), "to", len(c.Solutions))
}

// applyCrossoverOperator refills the population back up to solutions_size
// by pairing two random survivors per new candidate.
func (c *GeneticController) applyCrossoverOperator() {
	for len(c.Solutions) < c.Options.SolutionsSize {
		individual1 := c.Solutions[c.rng.Intn(len(c.Solutions))]
		individual2 := c.Solutions[c.rng.Intn(len(c.Solutions))]

		if len(individual1.Dispatcher.Trains) != len(individual2.Dispatcher.Trains) {
			continue
		}

		genes := c.crossedGenes(individual1, individual2)
		c.createSolution(genes)
	}
}

func (c *GeneticController) crossedGenes(individual1, individual2 *simulation.Simulation) map[string][]simulation.ActionKind {
	genes := map[string][]simulation.ActionKind{}
	for _, train1 := range individual1.Dispatcher.Trains {
		if c.rng.Float64() >= c.Options.TrainCrossingProbability {
			genes[train1.Prefix] = historyActions(train1)
			continue
		}

		var train2 *simulation.Train
		for _, t := range individual2.Dispatcher.Trains {
			if t.Prefix == train1.Prefix {
				train2 = t
				break
			}
		}
		if train2 == nil {
			genes[train1.Prefix] = historyActions(train1)
			continue
		}

		half1 := int(math.Round(float64(len(train1.ActionsHistory)) / 2.0))
		crossed := historyActionsRange(train1, 0, half1)
		half2 := int(math.Round(float64(len(train2.ActionsHistory)) / 2.0))
		crossed = append(crossed, historyActionsRange(train2, half2, len(train2.ActionsHistory))...)
		genes[train1.Prefix] = crossed
	}
	return genes
}

// applyMutationOperator clones a fraction of the surviving solutions with
// per-train, per-gene mutation and replaces the originals with the clones.
func (c *GeneticController) applyMutationOperator() {
	var kept, mutated []*simulation.Simulation
	for _, s := range c.Solutions {
		if c.rng.Float64() >= (1 - c.Options.SolutionMutationProbability) {
			genes := map[string][]simulation.ActionKind{}
			for _, t := range s.Dispatcher.Trains {
				genes[t.Prefix] = historyActions(t)
			}
			for _, t := range s.Dispatcher.Trains {
				if c.rng.Float64() >= (1 - c.Options.TrainMutationProbability) {
					genes[t.Prefix] = c.mutateTrain(t)
				}
			}
			mutated = append(mutated, c.newSolution(genes))
			continue
		}
		kept = append(kept, s)
	}
	c.Solutions = append(kept, mutated...)
}

func (c *GeneticController) mutateTrain(t *simulation.Train) []simulation.ActionKind {
	genes := historyActions(t)
	for i := range genes {
		if c.rng.Float64() >= (1 - c.Options.GeneMutationOccurrence) {
			genes[i] = simulation.AllActions[c.rng.Intn(len(simulation.AllActions))]
		}
	}
	return genes
}
