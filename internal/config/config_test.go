package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/studentpay/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Endpoint, convey.ShouldBeEmpty)
			convey.So(cfg.RemoteTimeout, convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.LoginRatePerSec, convey.ShouldEqual, 2.0)
			convey.So(cfg.LoginBurst, convey.ShouldEqual, 5)
		})
	})
}

func TestValidateEndpoint(t *testing.T) {
	convey.Convey("Given endpoint URLs", t, func() {
		convey.Convey("Then absolute http(s) URLs should be accepted", func() {
			convey.So(config.ValidateEndpoint("https://script.example.com/macros/s/abc/exec"), convey.ShouldBeNil)
			convey.So(config.ValidateEndpoint("http://localhost:9000/exec"), convey.ShouldBeNil)
		})

		convey.Convey("Then anything else should be rejected", func() {
			for _, bad := range []string{"", "  ", "/exec", "ftp://host/x", "https://", "://bad"} {
				convey.So(errors.Is(config.ValidateEndpoint(bad), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
