package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/minisched/internal/adapters/http/site"
	"github.com/okian/minisched/internal/adapters/mq/publisher"
	app "github.com/okian/minisched/internal/app"
	"github.com/okian/minisched/internal/config"
	"github.com/okian/minisched/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("SCHED_ADDR", ":8080")
			_ = os.Setenv("SCHED_QUEUE_SIZE", "1000")
			_ = os.Setenv("SCHED_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("SCHED_ADDR")
				_ = os.Unsetenv("SCHED_QUEUE_SIZE")
				_ = os.Unsetenv("SCHED_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ChangeQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building the publisher without a broker", func() {
			pub, closeFn, err := newPublisher(context.Background(), config.New())

			convey.Convey("Then changes are only logged", func() {
				convey.So(err, convey.ShouldBeNil)
				_, isLog := pub.(*publisher.LogPublisher)
				convey.So(isLog, convey.ShouldBeTrue)
				convey.So(closeFn, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the broker address is malformed", func() {
			cfg := config.New()
			cfg.AMQPURL = "not-a-url"
			_, _, err := newPublisher(context.Background(), cfg)

			convey.Convey("Then startup fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given the assembled router", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithWorkerCount(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newRouter(ctx, config.New(), svc)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the greeting is served at the root", func() {
			w := get("/")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldEqual, site.Greeting)
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "*")
		})

		convey.Convey("And events can be created and listed", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/events",
				strings.NewReader(`{"title":"Project deadline","date":"2025-03-01","time":"17:00"}`))
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)

			list := get("/events")
			convey.So(list.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(list.Body.String(), convey.ShouldContainSubstring, `"category":"Work"`)
		})

		convey.Convey("And the docs, calendar, stats and metrics routes answer", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml", "/events.ics", "/stats", "/healthz"} {
				convey.So(get(path).Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And unknown routes return 404", func() {
			convey.So(get("/nope").Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		svc := app.New()

		convey.Convey("When the context ends they return", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating once they do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
