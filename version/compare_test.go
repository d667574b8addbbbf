package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		Convey("Orders semantic versions", func() {
			cases := []struct {
				a, b string
				want int
			}{
				{"1.0.0", "1.0.0", 0},
				{"1.0.1", "1.0.0", 1},
				{"1.0.0", "1.0.1", -1},
				{"1.1.0", "1.0.9", 1},
				{"2.0.0", "1.9.9", 1},
				{"v1.2.3", "1.2.3", 0},
			}

			for _, c := range cases {
				got, err := Compare(c.a, c.b)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("Rejects malformed versions", func() {
			_, err := Compare("not-a-version", "1.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}
