package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	Convey("Given a fresh cache", t, func() {
		c := NewCache()

		Convey("A miss reports ok=false", func() {
			_, ok := c.GetFromKey("mod", "key")
			So(ok, ShouldBeFalse)
		})

		Convey("A saved value round-trips", func() {
			c.SaveToKey("mod", "key", []string{"a", "b"})
			v, ok := c.GetFromKey("mod", "key")
			So(ok, ShouldBeTrue)
			So(v, ShouldResemble, []string{"a", "b"})
		})

		Convey("Mutating a returned slice does not affect the cached copy", func() {
			c.SaveToKey("mod", "key", []string{"a", "b"})
			v, _ := c.GetFromKey("mod", "key")
			got := v.([]string)
			got[0] = "mutated"

			v2, _ := c.GetFromKey("mod", "key")
			So(v2, ShouldResemble, []string{"a", "b"})
		})

		Convey("A disabled cache never stores or returns values", func() {
			c.SetDisabled(true)
			c.SaveToKey("mod", "key", "value")
			_, ok := c.GetFromKey("mod", "key")
			So(ok, ShouldBeFalse)
			So(c.IsDisabled(), ShouldBeTrue)
		})

		Convey("ClearAll wipes every module", func() {
			c.SaveToKey("mod1", "k", 1)
			c.SaveToKey("mod2", "k", 2)
			c.ClearAll()
			_, ok1 := c.GetFromKey("mod1", "k")
			_, ok2 := c.GetFromKey("mod2", "k")
			So(ok1, ShouldBeFalse)
			So(ok2, ShouldBeFalse)
		})

		Convey("ListKeys reports every key stored for a module", func() {
			c.SaveToKey("mod", "k1", 1)
			c.SaveToKey("mod", "k2", 2)
			So(c.ListKeys("mod"), ShouldContain, "k1")
			So(c.ListKeys("mod"), ShouldContain, "k2")
		})
	})
}
