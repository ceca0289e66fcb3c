package simulation

// TrainFrame is one train's state as recorded into a single tick's frame.
type TrainFrame struct {
	Prefix            string
	HeadSection       string
	RelativePosition  float64
	Velocity          float64
	AccumulatedCost   float64
	PossibleActions   []string
	IsReversed        bool
	NextStraight      string
	NextDeviated      string
	PreviousStraight  string
	PreviousDeviated  string
}

// Frame is a single tick's worth of state, consumed read-only by external
// renderers (spec.md §6 "Outputs") — never produced/consumed by this
// package's own control flow beyond appending.
type Frame struct {
	Step   int
	Cost   float64
	Trains []TrainFrame
}

// SimulationResults is the per-tick frame log plus identifying metadata for
// a single simulation run (spec.md §3), supplemented with ControllerName
// and SimulationUUID from original_source/simulation_results.py (dropped by
// the distillation, useful purely for report attribution).
type SimulationResults struct {
	SimulationUUID  string
	ControllerName  string
	Frames          []Frame
}

// RegisterFrame appends the current dispatcher state as a new frame.
func (r *SimulationResults) RegisterFrame(s *Simulation) {
	frame := Frame{Step: s.TimeDynamics.CurrentStep, Cost: s.AccumulatedCost}
	for _, t := range s.Dispatcher.Trains {
		names := make([]string, len(t.PossibleActions))
		for i, k := range t.PossibleActions {
			names[i] = actionAbbrev(k)
		}
		frame.Trains = append(frame.Trains, TrainFrame{
			Prefix:           t.Prefix,
			HeadSection:      t.CurrentHeadSection.Name,
			RelativePosition: t.RelativePosition,
			Velocity:         t.Equation.Velocity,
			AccumulatedCost:  t.AccumulatedCost,
			PossibleActions:  names,
			IsReversed:       t.IsReversed,
			NextStraight:     sectionNameOrEmpty(t.NextStraightSection),
			NextDeviated:     sectionNameOrEmpty(t.NextDeviatedSection),
			PreviousStraight: sectionNameOrEmpty(t.PreviousStraightSection),
			PreviousDeviated: sectionNameOrEmpty(t.PreviousDeviatedSection),
		})
	}
	r.Frames = append(r.Frames, frame)
}

func sectionNameOrEmpty(s *Section) string {
	if s == nil {
		return ""
	}
	return s.Name
}
