package traits_test

import (
	"testing"

	"github.com/hoofline/showring/internal/domain/traits"
	. "github.com/smartystreets/goconvey/convey"
)

func testTable() traits.Table {
	return traits.NewTable(map[string]traits.Effect{
		"bold":       {Modifier: 0.05},
		"spooky":     {Modifier: -0.08},
		"surefooted": {Modifier: 0.02, Disciplines: map[string]float64{"cross_country": 0.10}},
		"lazy":       {Modifier: -0.03, Disciplines: map[string]float64{"racing": -0.12}},
		"neutral":    {Modifier: 0},
	})
}

func TestResolve(t *testing.T) {
	Convey("Given a trait table", t, func() {
		tbl := testTable()

		Convey("When a horse has one bonus and one penalty trait", func() {
			out := traits.Resolve(tbl, []string{"bold", "spooky"}, "dressage")

			Convey("Then the modifiers sum and are classified", func() {
				So(out.Total, ShouldAlmostEqual, -0.03)
				So(out.Applied, ShouldHaveLength, 2)
				So(out.Bonuses, ShouldResemble, []string{"bold"})
				So(out.Penalties, ShouldResemble, []string{"spooky"})
				So(out.HasAffinity, ShouldBeFalse)
				So(out.FlatBonus, ShouldEqual, 0)
			})
		})

		Convey("When a trait has a discipline override", func() {
			out := traits.Resolve(tbl, []string{"surefooted"}, "cross_country")

			Convey("Then the override replaces the general modifier", func() {
				So(out.Total, ShouldAlmostEqual, 0.10)
				So(out.Applied[0].Specialized, ShouldBeTrue)
				So(out.Applied[0].Modifier, ShouldAlmostEqual, 0.10)
			})
		})

		Convey("When the same trait runs in a discipline without an override", func() {
			out := traits.Resolve(tbl, []string{"surefooted"}, "dressage")

			Convey("Then the general modifier applies", func() {
				So(out.Total, ShouldAlmostEqual, 0.02)
				So(out.Applied[0].Specialized, ShouldBeFalse)
			})
		})

		Convey("When a negative override exists", func() {
			out := traits.Resolve(tbl, []string{"lazy"}, "racing")

			Convey("Then it replaces rather than stacks", func() {
				So(out.Total, ShouldAlmostEqual, -0.12)
				So(out.Penalties, ShouldResemble, []string{"lazy"})
			})
		})

		Convey("When a trait name is unknown", func() {
			out := traits.Resolve(tbl, []string{"imaginary"}, "dressage")

			Convey("Then it is skipped without effect", func() {
				So(out.Total, ShouldEqual, 0)
				So(out.Applied, ShouldBeEmpty)
			})
		})

		Convey("When the visible list is empty", func() {
			out := traits.Resolve(tbl, nil, "racing")

			Convey("Then the outcome is zero", func() {
				So(out.Total, ShouldEqual, 0)
				So(out.HasAffinity, ShouldBeFalse)
			})
		})

		Convey("When a zero-modifier trait applies", func() {
			out := traits.Resolve(tbl, []string{"neutral"}, "racing")

			Convey("Then it is recorded but classified as neither bonus nor penalty", func() {
				So(out.Applied, ShouldHaveLength, 1)
				So(out.Bonuses, ShouldBeEmpty)
				So(out.Penalties, ShouldBeEmpty)
			})
		})
	})
}

func TestResolveAffinity(t *testing.T) {
	Convey("Given a horse with a discipline affinity trait", t, func() {
		tbl := testTable()

		Convey("When the affinity matches the show discipline", func() {
			out := traits.Resolve(tbl, []string{"discipline_affinity_racing"}, "racing")

			Convey("Then the flat bonus is granted and the trait reported", func() {
				So(out.HasAffinity, ShouldBeTrue)
				So(out.FlatBonus, ShouldEqual, 5)
				So(out.Total, ShouldEqual, 0)
				So(out.Applied, ShouldHaveLength, 1)
				So(out.Bonuses, ShouldResemble, []string{"discipline_affinity_racing"})
			})
		})

		Convey("When the affinity names a different discipline", func() {
			out := traits.Resolve(tbl, []string{"discipline_affinity_racing"}, "dressage")

			Convey("Then no affinity bonus applies", func() {
				So(out.HasAffinity, ShouldBeFalse)
				So(out.FlatBonus, ShouldEqual, 0)
				So(out.Applied, ShouldBeEmpty)
			})
		})

		Convey("When the affinity trait also has a table entry", func() {
			withEntry := traits.NewTable(map[string]traits.Effect{
				"discipline_affinity_racing": {Modifier: 0.05},
			})
			out := traits.Resolve(withEntry, []string{"discipline_affinity_racing"}, "racing")

			Convey("Then both the percentage and the flat bonus apply", func() {
				So(out.HasAffinity, ShouldBeTrue)
				So(out.FlatBonus, ShouldEqual, 5)
				So(out.Total, ShouldAlmostEqual, 0.05)
				So(out.Bonuses, ShouldResemble, []string{"discipline_affinity_racing"})
			})
		})
	})
}

func TestAffinityTraitName(t *testing.T) {
	Convey("Given discipline names in assorted shapes", t, func() {
		Convey("Then the affinity name is the snake_case form", func() {
			So(traits.AffinityTraitName("racing"), ShouldEqual, "discipline_affinity_racing")
			So(traits.AffinityTraitName("Show Jumping"), ShouldEqual, "discipline_affinity_show_jumping")
			So(traits.AffinityTraitName("cross-country"), ShouldEqual, "discipline_affinity_cross_country")
		})
	})
}

func TestNewTableCopies(t *testing.T) {
	Convey("Given a source effect map", t, func() {
		src := map[string]traits.Effect{
			"bold": {Modifier: 0.05, Disciplines: map[string]float64{"racing": 0.08}},
		}
		tbl := traits.NewTable(src)

		Convey("When the source is mutated after construction", func() {
			src["bold"].Disciplines["racing"] = -1
			src["new"] = traits.Effect{Modifier: 1}

			Convey("Then the table keeps the original values", func() {
				out := traits.Resolve(tbl, []string{"bold", "new"}, "racing")
				So(out.Total, ShouldAlmostEqual, 0.08)
				So(out.Applied, ShouldHaveLength, 1)
			})
		})
	})
}
