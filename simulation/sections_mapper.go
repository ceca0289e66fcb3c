package simulation

import (
	"fmt"
	"math"
	"strings"
)

// SectionsMapper owns an ordered section set and answers the structural
// queries every action predicate and dispatcher tick depends on. Expensive
// queries are memoised in a shared Cache under a namespace derived from the
// section-name list (spec.md §3, §4.1).
type SectionsMapper struct {
	sections   []*Section
	byName     map[string]*Section
	cacheModule string
	cache      *Cache
}

// NewSectionsMapper builds a mapper over the given sections, sharing the
// supplied cache (process-wide, per spec.md §5).
func NewSectionsMapper(sections []*Section, cache *Cache) *SectionsMapper {
	m := &SectionsMapper{
		sections: sections,
		byName:   make(map[string]*Section, len(sections)),
		cache:    cache,
	}
	names := make([]string, len(sections))
	for i, s := range sections {
		m.byName[s.Name] = s
		names[i] = s.Name
	}
	m.cacheModule = "SectionsMapper_" + strings.Join(names, ",")
	return m
}

// Sections returns the ordered section list backing this mapper.
func (m *SectionsMapper) Sections() []*Section { return m.sections }

// FindSectionByName returns the unique section with the given name, or a
// NotFound error.
func (m *SectionsMapper) FindSectionByName(name string) (*Section, error) {
	if s, ok := m.byName[name]; ok {
		return s, nil
	}
	return nil, NewError(NotFound, "section %s wasn't found", name)
}

func connectionOrigin(end string, reversed bool) string {
	if end == "next" {
		if reversed {
			return "start"
		}
		return "end"
	}
	// "previous"
	if reversed {
		return "end"
	}
	return "start"
}

// GetNextSections returns the neighbours reached from s's "end" endpoint
// (or "start" if reversed), straight connection first, then deviated.
func (m *SectionsMapper) GetNextSections(s *Section, reversed bool) []*Section {
	names := s.AccessibleConnections(connectionOrigin("next", reversed))
	out := make([]*Section, 0, len(names))
	for _, n := range names {
		if sec, ok := m.byName[n]; ok {
			out = append(out, sec)
		}
	}
	return out
}

// GetPreviousSections mirrors GetNextSections, looking the opposite way.
func (m *SectionsMapper) GetPreviousSections(s *Section, reversed bool) []*Section {
	names := s.AccessibleConnections(connectionOrigin("previous", reversed))
	out := make([]*Section, 0, len(names))
	for _, n := range names {
		if sec, ok := m.byName[n]; ok {
			out = append(out, sec)
		}
	}
	return out
}

// GetAllSectionsAfter returns the transitive closure of GetNextSections,
// with set semantics (order unspecified).
func (m *SectionsMapper) GetAllSectionsAfter(s *Section, reversed bool) []*Section {
	return m.transitiveClosure(s, reversed, m.GetNextSections)
}

// GetAllSectionsBefore returns the transitive closure of GetPreviousSections.
func (m *SectionsMapper) GetAllSectionsBefore(s *Section, reversed bool) []*Section {
	return m.transitiveClosure(s, reversed, m.GetPreviousSections)
}

func (m *SectionsMapper) transitiveClosure(s *Section, reversed bool, step func(*Section, bool) []*Section) []*Section {
	seen := map[string]*Section{}
	var walk func(*Section)
	walk = func(cur *Section) {
		for _, next := range step(cur, reversed) {
			if _, ok := seen[next.Name]; ok {
				continue
			}
			seen[next.Name] = next
			walk(next)
		}
	}
	walk(s)
	out := make([]*Section, 0, len(seen))
	for _, sec := range seen {
		out = append(out, sec)
	}
	return out
}

// GetRoutesBetweenSections enumerates every simple path from a to b in the
// given direction. Each path is the ordered list of section names starting
// with a.Name and ending with b.Name. If a==b the single path [a.Name] is
// returned. The memoisation key includes the visited chain, per spec.md §9
// ("Memoisation correctness") — keying only on (start, end, reversed) would
// be wrong during the recursive descent.
func (m *SectionsMapper) GetRoutesBetweenSections(a, b *Section, reversed bool, chain []string) [][]string {
	if a == nil || b == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("routes_%s_%s_%v_%s", a.Name, b.Name, reversed, strings.Join(chain, ";"))
	if v, ok := m.cache.GetFromKey(m.cacheModule, cacheKey); ok {
		return v.([][]string)
	}

	newChain := make([]string, len(chain), len(chain)+1)
	copy(newChain, chain)
	newChain = append(newChain, a.Name)

	var routes [][]string
	if a.Name == b.Name {
		routes = [][]string{newChain}
	} else {
		for _, next := range m.GetNextSections(a, reversed) {
			if containsString(newChain, next.Name) {
				continue
			}
			for _, r := range m.GetRoutesBetweenSections(next, b, reversed, newChain) {
				routes = append(routes, r)
			}
		}
	}

	m.cache.SaveToKey(m.cacheModule, cacheKey, routes)
	return routes
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// CountTotalRoutesBetweenSections returns the number of simple paths from a
// to b in the given direction.
func (m *SectionsMapper) CountTotalRoutesBetweenSections(a, b *Section, reversed bool) int {
	return len(m.GetRoutesBetweenSections(a, b, reversed, nil))
}

// GetDistanceBetweenSections returns the minimum sum of section lengths
// across every enumerated route between a and b, or +Inf if unreachable.
func (m *SectionsMapper) GetDistanceBetweenSections(a, b *Section, reversed bool) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	cacheKey := fmt.Sprintf("distance_%s_%s_%v", a.Name, b.Name, reversed)
	if v, ok := m.cache.GetFromKey(m.cacheModule, cacheKey); ok {
		return v.(float64)
	}

	routes := m.GetRoutesBetweenSections(a, b, reversed, nil)
	if len(routes) == 0 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for _, route := range routes {
		total := 0.0
		for _, name := range route {
			sec, err := m.FindSectionByName(name)
			if err != nil {
				continue
			}
			total += sec.Length
		}
		if total < min {
			min = total
		}
	}
	m.cache.SaveToKey(m.cacheModule, cacheKey, min)
	return min
}

// GetNextTurnout walks forward taking the straight successor at each step
// until it finds a turnout (returned) or runs out of successors (nil).
func (m *SectionsMapper) GetNextTurnout(from *Section, reversed bool) *Section {
	return m.walkToTurnout(from, reversed, m.GetNextSections)
}

// GetPreviousTurnout mirrors GetNextTurnout, walking backward.
func (m *SectionsMapper) GetPreviousTurnout(from *Section, reversed bool) *Section {
	return m.walkToTurnout(from, reversed, m.GetPreviousSections)
}

func (m *SectionsMapper) walkToTurnout(from *Section, reversed bool, step func(*Section, bool) []*Section) *Section {
	cursor := from
	for {
		if cursor == nil {
			return nil
		}
		if cursor.IsTurnout() {
			return cursor
		}
		next := step(cursor, reversed)
		if len(next) == 0 {
			return nil
		}
		cursor = next[0]
	}
}

// CheckIntegrity verifies that for every pair of endpoints lacking
// connections on complementary sides, the simple-path count in the forward
// direction equals the count in reverse (spec.md §3 invariant).
func (m *SectionsMapper) CheckIntegrity() error {
	var startEndpoints, endEndpoints []*Section
	for _, s := range m.sections {
		if len(s.AccessibleConnections("start")) == 0 {
			startEndpoints = append(startEndpoints, s)
		}
		if len(s.AccessibleConnections("end")) == 0 {
			endEndpoints = append(endEndpoints, s)
		}
	}

	for _, ep := range startEndpoints {
		if err := m.checkEndpointIntegrity(ep, false); err != nil {
			return err
		}
	}
	for _, ep := range endEndpoints {
		if err := m.checkEndpointIntegrity(ep, true); err != nil {
			return err
		}
	}
	return nil
}

func (m *SectionsMapper) checkEndpointIntegrity(endpoint *Section, lookReversed bool) error {
	oppositeOrigin := "end"
	if lookReversed {
		oppositeOrigin = "start"
	}

	for _, dest := range m.sections {
		if dest.Name == endpoint.Name {
			continue
		}
		if len(dest.AccessibleConnections(oppositeOrigin)) != 0 {
			continue
		}

		forward := m.CountTotalRoutesBetweenSections(endpoint, dest, lookReversed)
		backward := m.CountTotalRoutesBetweenSections(dest, endpoint, !lookReversed)

		if forward != backward {
			return NewError(ConflictCondition,
				"connectivity integrity error: starting at section %s and ending at section %s, there are %d routes in normal direction, and %d in the opposite one",
				endpoint.Name, dest.Name, forward, backward)
		}
	}
	return nil
}
