package segments

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeSeeker struct {
	seeks    []float64
	chapters [][]map[string]interface{}
}

func (f *fakeSeeker) Seek(seconds float64) error {
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeSeeker) SetChapters(chapters []map[string]interface{}) error {
	f.chapters = append(f.chapters, chapters)
	return nil
}

func times() *Times {
	return &Times{
		Intro:      Interval{Start: 90, End: 120},
		Credits:    Interval{Start: 1200, End: 1260},
		HasIntro:   true,
		HasCredits: true,
	}
}

func TestSkipper(t *testing.T) {
	Convey("Given known intro and credits intervals", t, func() {
		seeker := &fakeSeeker{}
		skipper := NewSkipper(seeker, times(), true, true)

		Convey("A position inside the intro seeks to its end", func() {
			skipped, err := skipper.Check(100)

			So(err, ShouldBeNil)
			So(skipped, ShouldBeTrue)
			So(seeker.seeks, ShouldResemble, []float64{120})
		})

		Convey("A position inside the credits seeks to their end", func() {
			skipped, err := skipper.Check(1230)

			So(err, ShouldBeNil)
			So(skipped, ShouldBeTrue)
			So(seeker.seeks, ShouldResemble, []float64{1260})
		})

		Convey("Positions outside both intervals do nothing", func() {
			for _, pos := range []float64{0, 89.9, 120, 500, 1260} {
				skipped, err := skipper.Check(pos)
				So(err, ShouldBeNil)
				So(skipped, ShouldBeFalse)
			}
			So(seeker.seeks, ShouldBeEmpty)
		})

		Convey("Disabled toggles leave their interval alone", func() {
			noIntro := NewSkipper(seeker, times(), false, true)

			skipped, err := noIntro.Check(100)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeFalse)

			skipped, err = noIntro.Check(1230)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeTrue)
		})

		Convey("Without data everything is a no-op", func() {
			empty := NewSkipper(seeker, nil, true, true)

			skipped, err := empty.Check(100)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeFalse)
		})
	})
}

func TestApplyChapters(t *testing.T) {
	Convey("Given a player that renders chapters", t, func() {
		seeker := &fakeSeeker{}
		skipper := NewSkipper(seeker, times(), true, true)

		Convey("Both intervals become timeline markers", func() {
			So(skipper.ApplyChapters(), ShouldBeNil)

			So(seeker.chapters, ShouldHaveLength, 1)
			chapters := seeker.chapters[0]
			So(chapters, ShouldHaveLength, 5)
			So(chapters[1]["title"], ShouldEqual, "Intro")
			So(chapters[1]["time"], ShouldEqual, 90.0)
			So(chapters[3]["title"], ShouldEqual, "Credits")
		})
	})
}
