package feedsim

import (
	"errors"
	"testing"

	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVerify(t *testing.T) {
	Convey("Given an expected final state", t, func() {
		exp := Expected{Minute: 93, HomeScore: 2, AwayScore: 1, Status: match.StatusFinished, Winner: "HOME"}
		view := types.MatchView{
			Status: match.StatusFinished,
			Minute: 93,
			Score:  types.ScoreView{Home: 2, Away: 1},
			Winner: "HOME",
		}

		Convey("When the view matches", func() {
			Convey("Then verification should pass", func() {
				So(Verify(exp, view), ShouldBeNil)
			})
		})

		Convey("When several fields differ", func() {
			view.Status = match.StatusLive
			view.Minute = 80
			view.Winner = ""
			err := Verify(exp, view)

			Convey("Then every difference should be reported", func() {
				So(errors.Is(err, ErrMismatch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "status LIVE, want FINISHED")
				So(err.Error(), ShouldContainSubstring, "minute 80, want 93")
				So(err.Error(), ShouldContainSubstring, `winner "", want "HOME"`)
				So(err.Error(), ShouldNotContainSubstring, "score")
			})
		})
	})
}

func TestVerifyCounts(t *testing.T) {
	Convey("Given a timeline", t, func() {
		tl := Timeline{Steps: []Step{
			{Kind: StepFresh}, {Kind: StepStale}, {Kind: StepDuplicate}, {Kind: StepFresh},
		}}

		Convey("Then matching acknowledgements should pass", func() {
			So(verifyCounts(tl, &Stats{Accepted: 3, Duplicates: 1}), ShouldBeNil)
		})

		Convey("And failures and miscounts should be reported", func() {
			err := verifyCounts(tl, &Stats{Accepted: 2, Duplicates: 1, Failed: 1})
			So(errors.Is(err, ErrMismatch), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "1 submissions failed")
			So(err.Error(), ShouldContainSubstring, "2 accepted, want 3")
		})
	})
}
