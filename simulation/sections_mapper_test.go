package simulation

import (
	"fmt"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func mustSection(t *testing.T, name string, connections []Connection) *Section {
	t.Helper()
	sec, err := NewSection(name, 500, 0, FlowBoth, connections, nil)
	if err != nil {
		t.Fatalf("building section %s: %v", name, err)
	}
	return sec
}

func TestSectionsMapperStraightLine(t *testing.T) {
	Convey("Given a straight three-section line A-B-C", t, func() {
		a := mustSection(t, "A", []Connection{{ConnectsTo: "B", WhenAt: EndStraight}})
		b := mustSection(t, "B", []Connection{
			{ConnectsTo: "A", WhenAt: StartStraight},
			{ConnectsTo: "C", WhenAt: EndStraight},
		})
		c := mustSection(t, "C", []Connection{{ConnectsTo: "B", WhenAt: StartStraight}})

		cache := NewCache()
		mapper := NewSectionsMapper([]*Section{a, b, c}, cache)

		Convey("Its connectivity integrity check passes", func() {
			So(mapper.CheckIntegrity(), ShouldBeNil)
		})

		Convey("GetNextSections/GetPreviousSections walk the line both ways", func() {
			So(mapper.GetNextSections(a, false), ShouldResemble, []*Section{b})
			So(mapper.GetPreviousSections(c, false), ShouldResemble, []*Section{b})
		})

		Convey("There is exactly one route between the two ends", func() {
			routes := mapper.GetRoutesBetweenSections(a, c, false, nil)
			So(routes, ShouldHaveLength, 1)
			So(routes[0], ShouldResemble, []string{"A", "B", "C"})
		})

		Convey("GetDistanceBetweenSections sums the section lengths along the route", func() {
			So(mapper.GetDistanceBetweenSections(a, c, false), ShouldEqual, 1500.0)
		})

		Convey("An unreachable pair reports +Inf distance", func() {
			lonely := mustSection(t, "Lonely", nil)
			So(mapper.GetDistanceBetweenSections(a, lonely, false), ShouldEqual, math.Inf(1))
		})
	})
}

// buildDiamondChain returns the two end sections and a SectionsMapper that must enumerate 2^levels
// distinct simple paths between its two ends, used to exercise the
// memoisation cache's speed-up under real combinatorial cost (spec.md §8
// "cache effectiveness" property).
func buildDiamondChain(t *testing.T, levels int) (entry0, entryN *Section, mapper *SectionsMapper) {
	t.Helper()
	entries := make([]*Section, levels+1)
	for i := range entries {
		entries[i] = &Section{Name: fmt.Sprintf("entry_%d", i)}
	}

	var all []*Section
	for i := 0; i < levels; i++ {
		aName := fmt.Sprintf("a_%d", i)
		bName := fmt.Sprintf("b_%d", i)
		entries[i].Connections = append(entries[i].Connections,
			Connection{ConnectsTo: aName, WhenAt: EndStraight},
			Connection{ConnectsTo: bName, WhenAt: EndDeviated},
		)
		branchA := mustSection(t, aName, []Connection{
			{ConnectsTo: entries[i].Name, WhenAt: StartStraight},
			{ConnectsTo: entries[i+1].Name, WhenAt: EndStraight},
		})
		branchB := mustSection(t, bName, []Connection{
			{ConnectsTo: entries[i].Name, WhenAt: StartDeviated},
			{ConnectsTo: entries[i+1].Name, WhenAt: EndStraight},
		})
		entries[i+1].Connections = append(entries[i+1].Connections,
			Connection{ConnectsTo: aName, WhenAt: StartStraight},
			Connection{ConnectsTo: bName, WhenAt: StartDeviated},
		)
		all = append(all, branchA, branchB)
	}
	for i := range entries {
		entries[i].Flow = FlowBoth
		entries[i].Length = 500
		entries[i].maxVelocity = DefaultMaxVelocity
	}
	all = append(all, entries...)

	cache := NewCache()
	return entries[0], entries[levels], NewSectionsMapper(all, cache)
}

func TestSectionsMapperCacheSpeedsUpRouteEnumeration(t *testing.T) {
	Convey("Given a branching chain with 2^14 possible routes between its ends", t, func() {
		const levels = 14
		entry0, entryN, mapper := buildDiamondChain(t, levels)

		Convey("The integrity check treats it as a well-formed bidirectional graph", func() {
			So(mapper.CheckIntegrity(), ShouldBeNil)
		})

		Convey("The first (cold) enumeration is far slower than a repeated (warm) one", func() {
			start := time.Now()
			routes := mapper.GetRoutesBetweenSections(entry0, entryN, false, nil)
			cold := time.Since(start)
			So(routes, ShouldHaveLength, 1<<levels)

			start = time.Now()
			warmRoutes := mapper.GetRoutesBetweenSections(entry0, entryN, false, nil)
			warm := time.Since(start)
			So(warmRoutes, ShouldHaveLength, 1<<levels)

			// The cache key covers the whole (start, end, reversed, chain) tuple, so a
			// repeated top-level call hits the cache on its very first lookup instead
			// of re-walking the 2^levels branches. Use a conservative 4x margin rather
			// than a tight ratio, to stay robust under slow/loaded CI machines.
			So(warm*4, ShouldBeLessThan, cold)
		})
	})
}
