package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/adapters/repository"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func statusPtr(s match.Status) *match.Status { return &s }

// waitFor polls the match until cond holds or two seconds pass.
func waitFor(ctx context.Context, svc *service.Service, id uuid.UUID, cond func(types.MatchView) bool) types.MatchView {
	deadline := time.Now().Add(2 * time.Second)
	for {
		view, err := svc.Match(ctx, id)
		if err == nil && (cond(view) || time.Now().After(deadline)) {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with a live feed", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pub := &recordingPublisher{}
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(1000),
			service.WithDedupeSize(500),
			service.WithPublisher(pub),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		created, err := svc.CreateMatch(ctx, mexico, southAfrica)
		So(err, ShouldBeNil)
		id := uuid.MustParse(created.ID)

		submit := func(u model.FeedUpdate) bool {
			u.MatchID = id
			return svc.SubmitFeedUpdate(ctx, u)
		}

		Convey("When a full timeline is fed in order", func() {
			timeline := []model.FeedUpdate{
				{UpdateID: "kickoff", Minute: 0, Status: statusPtr(match.StatusLive)},
				{UpdateID: "goal-1", Minute: 12, HomeScore: 1},
				{UpdateID: "tick-45", Minute: 45, HomeScore: 1},
				{UpdateID: "goal-2", Minute: 71, HomeScore: 1, AwayScore: 1},
				{UpdateID: "goal-3", Minute: 88, HomeScore: 2, AwayScore: 1},
				{UpdateID: "final", Minute: 90, HomeScore: 2, AwayScore: 1, Status: statusPtr(match.StatusFinished)},
			}
			for _, u := range timeline {
				So(submit(u), ShouldBeTrue)
			}

			view := waitFor(ctx, svc, id, func(v types.MatchView) bool { return v.Finished })

			Convey("Then the match should end with the fed result", func() {
				So(view.Status, ShouldEqual, match.StatusFinished)
				So(view.Minute, ShouldEqual, 90)
				So(view.Score, ShouldResemble, types.ScoreView{Home: 2, Away: 1})
				So(view.Winner, ShouldEqual, "HOME")
			})

			Convey("Then the creation and every update should be broadcast", func() {
				deadline := time.Now().Add(2 * time.Second)
				for len(pub.published()) < 1+len(timeline) && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(pub.published(), ShouldHaveLength, 1+len(timeline))
			})
		})

		Convey("When a stale update arrives after a newer one", func() {
			So(submit(model.FeedUpdate{UpdateID: "kickoff", Status: statusPtr(match.StatusLive)}), ShouldBeTrue)
			So(submit(model.FeedUpdate{UpdateID: "m60", Minute: 60, HomeScore: 1, AwayScore: 1}), ShouldBeTrue)
			So(submit(model.FeedUpdate{UpdateID: "stale", Minute: 30, HomeScore: 1}), ShouldBeTrue)
			So(submit(model.FeedUpdate{UpdateID: "m61", Minute: 61, HomeScore: 1, AwayScore: 1}), ShouldBeTrue)

			view := waitFor(ctx, svc, id, func(v types.MatchView) bool { return v.Minute == 61 })

			Convey("Then the stale update should be rejected without effect", func() {
				So(view.Minute, ShouldEqual, 61)
				So(view.Score, ShouldResemble, types.ScoreView{Home: 1, Away: 1})
				stats := svc.GetStats()
				So(stats["rejectedUpdates"], ShouldEqual, int64(1))
			})
		})

		Convey("When an update is applied directly against a live match", func() {
			_, err := svc.StartMatch(ctx, id)
			So(err, ShouldBeNil)
			So(svc.Apply(ctx, model.FeedUpdate{UpdateID: "a", MatchID: id, Minute: 20, HomeScore: 1, AwayScore: 1}), ShouldBeNil)

			err = svc.Apply(ctx, model.FeedUpdate{UpdateID: "b", MatchID: id, Minute: 30, HomeScore: 0, AwayScore: 2})

			Convey("Then the minute should stay committed while the score is rejected", func() {
				So(errors.Is(err, match.ErrInvalidArgument), ShouldBeTrue)
				view, _ := svc.Match(ctx, id)
				So(view.Minute, ShouldEqual, 30)
				So(view.Score, ShouldResemble, types.ScoreView{Home: 1, Away: 1})

				published := pub.published()
				So(published[len(published)-1].Minute, ShouldEqual, 30)
			})
		})

		Convey("When an update targets an unknown match", func() {
			err := svc.Apply(ctx, model.FeedUpdate{UpdateID: "x", MatchID: uuid.New(), Minute: 1})

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a feed update is submitted after stop", func() {
			svc.Stop()

			Convey("Then it should be refused", func() {
				So(submit(model.FeedUpdate{UpdateID: "late", Minute: 1}), ShouldBeFalse)
			})
		})
	})
}

func TestServiceStopDrainsAfterStartContextEnds(t *testing.T) {
	Convey("Given a single-worker service started with a cancellable context", t, func() {
		startCtx, cancelStart := context.WithCancel(context.Background())
		defer cancelStart()

		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(10_000))
		So(svc.Start(startCtx), ShouldBeNil)

		ctx := context.Background()
		view, err := svc.CreateMatch(ctx, mexico, southAfrica)
		So(err, ShouldBeNil)
		id := uuid.MustParse(view.ID)

		const total = 5000
		accepted := 0
		for minute := 1; minute <= total; minute++ {
			u := model.FeedUpdate{UpdateID: uuid.NewString(), MatchID: id, Minute: minute}
			if minute == 1 {
				u.Status = statusPtr(match.StatusLive)
			}
			if svc.SubmitFeedUpdate(ctx, u) {
				accepted++
			}
		}
		So(accepted, ShouldEqual, total)

		Convey("When the start context is cancelled before Stop", func() {
			cancelStart()
			svc.Stop()

			Convey("Then every accepted update should have been applied", func() {
				final, err := svc.Match(ctx, id)
				So(err, ShouldBeNil)
				So(final.Minute, ShouldEqual, total)
				So(final.Status, ShouldEqual, match.StatusLive)
				So(final.Version, ShouldEqual, uint64(total+1))
			})
		})
	})
}
