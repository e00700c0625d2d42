package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/adapters/repository"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// recordingPublisher keeps every published view.
type recordingPublisher struct {
	mu    sync.Mutex
	views []types.MatchView
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, v types.MatchView) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []types.MatchView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.MatchView(nil), p.views...)
}

var (
	mexico      = types.TeamInput{Name: "Mexico", Code: "MEX"}
	southAfrica = types.TeamInput{Name: "South Africa", Code: "RSA"}
)

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should be created stopped", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithShardCount(2),
		)

		Convey("Then the options should show up in its stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
			So(stats["shardCount"], ShouldEqual, 2)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_CreateMatch(t *testing.T) {
	Convey("Given a service with a recording publisher", t, func() {
		ctx := context.Background()
		pub := &recordingPublisher{}
		clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC))
		svc := service.New(service.WithPublisher(pub), service.WithClock(clock))

		Convey("When creating a valid match", func() {
			view, err := svc.CreateMatch(ctx, mexico, southAfrica)

			Convey("Then it should start at 0-0, minute 0, NOT_STARTED", func() {
				So(err, ShouldBeNil)
				So(view.ID, ShouldNotBeEmpty)
				So(view.HomeTeam.Code, ShouldEqual, "MEX")
				So(view.AwayTeam.Name, ShouldEqual, "South Africa")
				So(view.Status, ShouldEqual, match.StatusNotStarted)
				So(view.StatusDescription, ShouldEqual, "Not started")
				So(view.Minute, ShouldEqual, 0)
				So(view.Score, ShouldResemble, types.ScoreView{})
				So(view.Version, ShouldEqual, 1)
				So(view.CreatedAt.Equal(clock.Now()), ShouldBeTrue)
			})

			Convey("Then it should be broadcast and readable", func() {
				So(pub.published(), ShouldHaveLength, 1)
				id := uuid.MustParse(view.ID)
				got, err := svc.Match(ctx, id)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, view)
			})
		})

		Convey("When a team is invalid", func() {
			_, errHome := svc.CreateMatch(ctx, types.TeamInput{Name: " ", Code: "MEX"}, southAfrica)
			_, errAway := svc.CreateMatch(ctx, mexico, types.TeamInput{Name: "South Africa"})
			_, errSame := svc.CreateMatch(ctx, mexico, mexico)

			Convey("Then creation should fail as an invalid argument", func() {
				So(errors.Is(errHome, match.ErrInvalidArgument), ShouldBeTrue)
				So(errHome.Error(), ShouldContainSubstring, "home team")
				So(errors.Is(errAway, match.ErrInvalidArgument), ShouldBeTrue)
				So(errAway.Error(), ShouldContainSubstring, "away team")
				So(errors.Is(errSame, match.ErrInvalidArgument), ShouldBeTrue)
				So(pub.published(), ShouldBeEmpty)
			})
		})
	})
}

func TestService_Commands(t *testing.T) {
	Convey("Given a created match", t, func() {
		ctx := context.Background()
		pub := &recordingPublisher{}
		svc := service.New(service.WithPublisher(pub))
		created, err := svc.CreateMatch(ctx, mexico, southAfrica)
		So(err, ShouldBeNil)
		id := uuid.MustParse(created.ID)

		Convey("When driving it through a full lifecycle", func() {
			_, err := svc.StartMatch(ctx, id)
			So(err, ShouldBeNil)
			_, err = svc.UpdateMinute(ctx, id, 23)
			So(err, ShouldBeNil)
			_, err = svc.UpdateScore(ctx, id, 1, 0)
			So(err, ShouldBeNil)
			_, err = svc.UpdateMinute(ctx, id, 90)
			So(err, ShouldBeNil)
			view, err := svc.FinishMatch(ctx, id)
			So(err, ShouldBeNil)

			Convey("Then the final view should name the winner", func() {
				So(view.Status, ShouldEqual, match.StatusFinished)
				So(view.Finished, ShouldBeTrue)
				So(view.Minute, ShouldEqual, 90)
				So(view.Winner, ShouldEqual, "HOME")
				So(view.Version, ShouldEqual, 6)
			})

			Convey("Then every change should be broadcast", func() {
				So(pub.published(), ShouldHaveLength, 6)
			})
		})

		Convey("When a command is illegal for the current status", func() {
			_, err := svc.FinishMatch(ctx, id)

			Convey("Then it should fail as an invalid state", func() {
				So(errors.Is(err, match.ErrInvalidState), ShouldBeTrue)
			})
		})

		Convey("When the clock is moved backwards", func() {
			_, err := svc.UpdateMinute(ctx, id, 10)
			So(err, ShouldBeNil)
			_, err = svc.UpdateMinute(ctx, id, 5)

			Convey("Then it should fail as an invalid argument and keep the clock", func() {
				So(errors.Is(err, match.ErrInvalidArgument), ShouldBeTrue)
				view, _ := svc.Match(ctx, id)
				So(view.Minute, ShouldEqual, 10)
			})
		})

		Convey("When repeating the current minute", func() {
			view, err := svc.UpdateMinute(ctx, id, 0)

			Convey("Then it should succeed without a broadcast", func() {
				So(err, ShouldBeNil)
				So(view.Version, ShouldEqual, 1)
				So(pub.published(), ShouldHaveLength, 1)
			})
		})

		Convey("When the match does not exist", func() {
			_, err := svc.StartMatch(ctx, uuid.New())

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the publisher fails", func() {
			pub.err = errors.New("broker down")
			view, err := svc.StartMatch(ctx, id)

			Convey("Then the command should still succeed", func() {
				So(err, ShouldBeNil)
				So(view.Status, ShouldEqual, match.StatusLive)
			})
		})
	})
}

func TestService_Matches(t *testing.T) {
	Convey("Given three matches", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		svc := service.New(service.WithClock(clock))

		var ids []string
		for range 3 {
			v, err := svc.CreateMatch(ctx, mexico, southAfrica)
			So(err, ShouldBeNil)
			ids = append(ids, v.ID)
			clock.Advance(time.Second)
		}

		Convey("When listing with a limit", func() {
			views, err := svc.Matches(ctx, 2)

			Convey("Then the oldest matches should come first", func() {
				So(err, ShouldBeNil)
				So(views, ShouldHaveLength, 2)
				So(views[0].ID, ShouldEqual, ids[0])
				So(views[1].ID, ShouldEqual, ids[1])
			})
		})

		Convey("When listing with an invalid limit", func() {
			_, err := svc.Matches(ctx, 0)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then matches should be counted by status", func() {
				So(stats["totalMatches"], ShouldEqual, 3)
				byStatus, ok := stats["matchesByStatus"].(map[string]int)
				So(ok, ShouldBeTrue)
				So(byStatus["NOT_STARTED"], ShouldEqual, 3)
				So(byStatus["LIVE"], ShouldEqual, 0)
			})
		})
	})
}

func TestService_SeenAndRecord(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("When checking a new update id", func() {
			seen := svc.SeenAndRecord(ctx, "update-123")

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When checking the same update id again", func() {
			svc.SeenAndRecord(ctx, "update-456")
			seen := svc.SeenAndRecord(ctx, "update-456")

			Convey("Then it should have been seen before", func() {
				So(seen, ShouldBeTrue)
			})
		})

		Convey("When an update id is unrecorded", func() {
			svc.SeenAndRecord(ctx, "update-789")
			svc.Unrecord(ctx, "update-789")

			Convey("Then it should be accepted again", func() {
				So(svc.SeenAndRecord(ctx, "update-789"), ShouldBeFalse)
			})
		})
	})
}

func TestService_BroadcastOrder(t *testing.T) {
	Convey("Given a live match changed by concurrent commands", t, func() {
		ctx := context.Background()
		pub := &recordingPublisher{}
		svc := service.New(service.WithPublisher(pub))

		view, err := svc.CreateMatch(ctx, mexico, southAfrica)
		So(err, ShouldBeNil)
		id := uuid.MustParse(view.ID)
		_, err = svc.StartMatch(ctx, id)
		So(err, ShouldBeNil)

		const rounds = 300
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for minute := 1; minute <= rounds; minute++ {
				_, _ = svc.UpdateMinute(ctx, id, minute)
			}
		}()
		go func() {
			defer wg.Done()
			for goals := 1; goals <= rounds; goals++ {
				_, _ = svc.UpdateScore(ctx, id, goals, 0)
			}
		}()
		wg.Wait()

		Convey("Then views should be published in version order", func() {
			var versions []uint64
			for _, v := range pub.published() {
				if v.ID == view.ID {
					versions = append(versions, v.Version)
				}
			}
			So(len(versions), ShouldEqual, 2+2*rounds)
			for i := 1; i < len(versions); i++ {
				So(versions[i], ShouldEqual, versions[i-1]+1)
			}
		})
	})
}
