package scenario

import (
	"encoding/json"
	"fmt"

	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/controller"
	"github.com/fndando/dispatchsim/server"
	"github.com/fndando/dispatchsim/simulation"
)

// Family names the three controller families spec.md §4.8 describes.
type Family string

const (
	FamilyRandom  Family = "random"
	FamilyGenetic Family = "genetic"
	FamilyPSO     Family = "pso"
)

// Driver wires a route, a train queue, and the requested controller
// families into a run, aggregating their reports and optionally pushing
// the winning solution's frame log to a server.Server's push feed (spec.md
// §2 "Scenario driver").
type Driver struct {
	Route  *simulation.Route
	Trains []simulation.QueuedTrain
	Opts   controller.Options

	Server *server.Server
	logger log.Logger

	controllers []*controller.BaseController
}

// NewDriver builds a Driver. srv may be nil when no status/push server is
// running for this scenario.
func NewDriver(route *simulation.Route, trains []simulation.QueuedTrain, opts controller.Options, srv *server.Server, logger log.Logger) *Driver {
	if logger == nil {
		logger = log.New()
	}
	return &Driver{
		Route:  route,
		Trains: trains,
		Opts:   opts,
		Server: srv,
		logger: logger.New("module", "scenario"),
	}
}

// Run executes every requested controller family in turn, keeps its
// BaseController for reporting, and (if a Server is attached) publishes the
// family's best solution's frame log over the push feed once that family's
// run finishes. Families run sequentially: spec.md's parallelism lives
// inside one controller step (§5 "Scheduling"), not across families.
func (d *Driver) Run(families []Family) error {
	for _, f := range families {
		base, err := d.runFamily(f)
		if err != nil {
			return err
		}
		d.controllers = append(d.controllers, base)
		d.publishBestSolution(base)
	}
	return nil
}

func (d *Driver) runFamily(f Family) (*controller.BaseController, error) {
	opts := d.Opts
	opts.SimulationOptions.ControllerName = string(f)

	switch f {
	case FamilyRandom:
		c := controller.NewRandomController(d.Route, d.Trains, opts, d.logger)
		c.Run()
		return c.BaseController, nil
	case FamilyGenetic:
		c := controller.NewGeneticController(d.Route, d.Trains, opts, d.logger)
		c.Run()
		return c.BaseController, nil
	case FamilyPSO:
		c := controller.NewPSOController(d.Route, d.Trains, opts, d.logger)
		c.Run()
		return c.BaseController, nil
	default:
		return nil, fmt.Errorf("unknown controller family %q", f)
	}
}

// publishBestSolution pushes one family's winning frame log to the
// websocket feed, one frame per message. A live per-tick push would
// require a mid-run callback into Simulation's tick loop; the HTTP surface
// is an explicit thin stub (spec.md §1 non-goals), so frames are relayed
// once the family's run has produced its final best solution instead.
func (d *Driver) publishBestSolution(base *controller.BaseController) {
	if d.Server == nil || base.BestSolutionResults == nil {
		return
	}
	for _, frame := range base.BestSolutionResults.Frames {
		payload, err := json.Marshal(frame)
		if err != nil {
			d.logger.Error("marshalling frame", "error", err)
			continue
		}
		d.Server.PublishFrame(payload)
	}
}

// Controllers returns the BaseController of every family run so far, for
// report rendering.
func (d *Driver) Controllers() []*controller.BaseController { return d.controllers }

// StatusJSON implements server.StatusFunc: the best-solution-so-far status
// across every family run so far (spec.md §6 "Outputs").
func (d *Driver) StatusJSON() ([]byte, error) {
	type familyStatus struct {
		Name       string  `json:"name"`
		BestCost   float64 `json:"best_cost"`
		BestStatus string  `json:"best_status"`
		StopReason string  `json:"stop_reason"`
	}
	statuses := make([]familyStatus, len(d.controllers))
	for i, c := range d.controllers {
		statuses[i] = familyStatus{
			Name:       c.Name,
			BestCost:   c.BestSolutionCost,
			BestStatus: string(c.BestSolutionStatus),
			StopReason: c.StopReason,
		}
	}
	return json.Marshal(statuses)
}
