package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tally/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.DefaultList, convey.ShouldEqual, "dl")
			convey.So(cfg.ScoringMaxRank, convey.ShouldEqual, 150)
			convey.So(cfg.ScoringProgressCutoff, convey.ShouldEqual, 75)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break a constraint", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"no data source", func(c *config.Config) { c.DataDir = ""; c.DataURL = "" }},
			{"empty default list", func(c *config.Config) { c.DefaultList = "" }},
			{"negative ttl", func(c *config.Config) { c.CacheTTLMS = -1 }},
			{"cutoff past max", func(c *config.Config) { c.ScoringProgressCutoff = 200 }},
			{"default not listed", func(c *config.Config) { c.Lists = []string{"cl"} }},
		}
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" should be rejected", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then a data URL alone should be accepted", func() {
			cfg := config.New()
			cfg.DataDir = ""
			cfg.DataURL = "https://example.org/data"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
