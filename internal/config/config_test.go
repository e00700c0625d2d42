package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/pulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.NATSURL, convey.ShouldBeEmpty)
			convey.So(cfg.NATSSubjectPrefix, convey.ShouldEqual, "pulse.matches")
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"*"})
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the listen address is blank", func() {
			cfg.Addr = "  "
			err := cfg.Validate()

			convey.Convey("Then it should be rejected as invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When the list limit is not positive", func() {
			cfg.MaxListLimit = 0
			err := cfg.Validate()

			convey.Convey("Then it should be rejected as invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When NATS is enabled without a subject prefix", func() {
			cfg.NATSURL = "nats://127.0.0.1:4222"
			cfg.NATSSubjectPrefix = ""
			err := cfg.Validate()

			convey.Convey("Then it should be rejected as invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "nats_subject_prefix")
			})
		})
	})
}

func TestConfig_AllowedOrigins(t *testing.T) {
	convey.Convey("Given a comma separated origin list", t, func() {
		cfg := config.New()
		cfg.CORSOrigins = " https://a.example , ,https://b.example"

		convey.Convey("Then blanks should be dropped and entries trimmed", func() {
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})

		convey.Convey("And an empty list should yield no origins", func() {
			cfg.CORSOrigins = ""
			convey.So(cfg.AllowedOrigins(), convey.ShouldBeEmpty)
		})
	})
}
