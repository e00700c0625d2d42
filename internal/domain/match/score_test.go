package match_test

import (
	"errors"
	"testing"

	"github.com/okian/pulse/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given score construction", t, func() {
		Convey("When either side is negative", func() {
			_, homeErr := match.NewScore(-1, 0)
			_, awayErr := match.NewScore(0, -1)

			Convey("Then both should fail as invalid arguments", func() {
				So(errors.Is(homeErr, match.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(awayErr, match.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When both sides are non-negative", func() {
			s, err := match.NewScore(2, 1)

			Convey("Then the values should be kept", func() {
				So(err, ShouldBeNil)
				So(s.Home(), ShouldEqual, 2)
				So(s.Away(), ShouldEqual, 1)
				So(s.String(), ShouldEqual, "2-1")
			})
		})
	})

	Convey("Given a 1-1 score", t, func() {
		s, err := match.NewScore(1, 1)
		So(err, ShouldBeNil)

		Convey("When updating forwards", func() {
			next, err := s.Update(2, 1)

			Convey("Then a new value should be returned and the receiver left alone", func() {
				So(err, ShouldBeNil)
				So(next.Home(), ShouldEqual, 2)
				So(next.Away(), ShouldEqual, 1)
				So(s.Home(), ShouldEqual, 1)
			})
		})

		Convey("When updating to the same value", func() {
			next, err := s.Update(1, 1)

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(next == s, ShouldBeTrue)
			})
		})

		Convey("When only the home side regresses", func() {
			_, err := s.Update(0, 3)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, match.ErrInvalidArgument), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "home score cannot decrease")
			})
		})

		Convey("When only the away side regresses", func() {
			_, err := s.Update(1, 0)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, match.ErrInvalidArgument), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "away score cannot decrease")
			})
		})

		Convey("Then it should be a draw without a winner", func() {
			So(s.IsDraw(), ShouldBeTrue)
			So(s.Winner(), ShouldEqual, match.SideNone)
		})
	})

	Convey("Given decided scores", t, func() {
		home, _ := match.NewScore(3, 0)
		away, _ := match.NewScore(0, 2)

		Convey("Then the leading side should win", func() {
			So(home.IsDraw(), ShouldBeFalse)
			So(home.Winner(), ShouldEqual, match.SideHome)
			So(home.Winner().String(), ShouldEqual, "HOME")
			So(away.Winner(), ShouldEqual, match.SideAway)
			So(away.Winner().String(), ShouldEqual, "AWAY")
			So(match.SideNone.String(), ShouldEqual, "")
		})
	})
}
