package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fndando/dispatchsim/simulation"
)

// sectionDescriptor mirrors the JSON shape spec.md §6 gives for route
// input: {name, length, start_kilometre, connections=[{connects_to,
// when_at}], lines?, restrictions?, description?}.
type sectionDescriptor struct {
	Name           string                    `json:"name"`
	Length         float64                   `json:"length"`
	StartKilometre float64                   `json:"start_kilometre"`
	Flow           simulation.Flow           `json:"flow,omitempty"`
	Connections    []simulation.Connection   `json:"connections,omitempty"`
	Restrictions   []simulation.Restriction  `json:"restrictions,omitempty"`
	Description    string                    `json:"description,omitempty"`
	Lines          []string                  `json:"lines,omitempty"`
	Interdicted    bool                      `json:"interdicted,omitempty"`
}

type routeFile struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Sections    []sectionDescriptor `json:"sections"`
}

// LoadRoute reads a JSON route file and builds the *simulation.Route it
// describes, sharing the given cache (spec.md §6 "Inputs").
func LoadRoute(filename string, cache *simulation.Cache) (*simulation.Route, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading route file: %w", err)
	}

	var rf routeFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing route file: %w", err)
	}

	sections := make([]*simulation.Section, len(rf.Sections))
	for i, d := range rf.Sections {
		sec, err := simulation.NewSection(d.Name, d.Length, d.StartKilometre, d.Flow, d.Connections, d.Restrictions)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", d.Name, err)
		}
		sec.Description = d.Description
		sec.Lines = d.Lines
		sec.Interdicted = d.Interdicted
		sections[i] = sec
	}

	return simulation.NewRoute(rf.Name, rf.Description, sections, cache)
}

// trainDescriptor mirrors spec.md §6's "Train options" row: the route
// fields reference sections by name (JSON can't hold the *Section pointers
// a QueuedTrain needs), resolved against the loaded route below.
type trainDescriptor struct {
	Prefix        string  `json:"prefix"`
	StartSection  string  `json:"start_section"`
	FinishSection string  `json:"finish_section"`
	Direction     string  `json:"direction"`
	Priority      int     `json:"priority"`
	Length        float64 `json:"length"`
	Weight        float64 `json:"weight"`
	StepToAdd     int     `json:"step_to_add,omitempty"`

	MayInvadeInterdictedSections bool `json:"may_invade_interdicted_sections,omitempty"`
	AllowReverseAction           bool `json:"allow_reverse_action,omitempty"`
}

// LoadTrains reads a JSON train list and resolves each descriptor's section
// names against route, returning the queue the controller family consumes.
func LoadTrains(filename string, route *simulation.Route) ([]simulation.QueuedTrain, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading trains file: %w", err)
	}

	var descriptors []trainDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("parsing trains file: %w", err)
	}

	queue := make([]simulation.QueuedTrain, len(descriptors))
	for i, d := range descriptors {
		start, err := route.SectionsMapper.FindSectionByName(d.StartSection)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", d.Prefix, err)
		}
		finish, err := route.SectionsMapper.FindSectionByName(d.FinishSection)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", d.Prefix, err)
		}

		direction := simulation.Normal
		switch d.Direction {
		case "", "normal":
			direction = simulation.Normal
		case "reversed":
			direction = simulation.Reversed
		default:
			return nil, simulation.NewError(simulation.InvalidChoice, "train %s: unknown direction %q", d.Prefix, d.Direction)
		}

		queue[i] = simulation.QueuedTrain{Options: simulation.TrainOptions{
			Prefix:                       d.Prefix,
			StartSection:                 start,
			FinishSection:                finish,
			Direction:                    direction,
			Priority:                     d.Priority,
			Length:                       d.Length,
			Weight:                       d.Weight,
			StepToAdd:                    d.StepToAdd,
			MayInvadeInterdictedSections: d.MayInvadeInterdictedSections,
			AllowReverseAction:           d.AllowReverseAction,
		}}
	}
	return queue, nil
}
