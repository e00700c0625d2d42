package match_test

import (
	"errors"
	"testing"

	"github.com/okian/pulse/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewTeam(t *testing.T) {
	Convey("Given team input", t, func() {
		Convey("When name and code are padded and lower case", func() {
			team, err := match.NewTeam("  Barcelona ", " bar ")

			Convey("Then it should trim both and upper-case the code", func() {
				So(err, ShouldBeNil)
				So(team.Name(), ShouldEqual, "Barcelona")
				So(team.Code(), ShouldEqual, "BAR")
				So(team.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the name is blank", func() {
			_, err := match.NewTeam("   ", "BAR")

			Convey("Then it should be rejected as an invalid argument", func() {
				So(errors.Is(err, match.ErrInvalidArgument), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "name")
			})
		})

		Convey("When the code is empty", func() {
			_, err := match.NewTeam("Barcelona", "")

			Convey("Then it should be rejected as an invalid argument", func() {
				So(errors.Is(err, match.ErrInvalidArgument), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "code")
			})
		})

		Convey("When two teams are built from equivalent input", func() {
			a, _ := match.NewTeam("Real Madrid", "rma")
			b, _ := match.NewTeam(" Real Madrid", "RMA ")
			c, _ := match.NewTeam("Real Madrid", "RM")

			Convey("Then equality should be structural", func() {
				So(a == b, ShouldBeTrue)
				So(a == c, ShouldBeFalse)
			})
		})
	})
}
