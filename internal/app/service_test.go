package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/minisched/internal/app"
	"github.com/okian/minisched/internal/domain/category"
	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []model.Change
}

func (r *recordingPublisher) Publish(_ context.Context, c model.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}

func (r *recordingPublisher) kinds() map[string]model.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]model.ChangeKind, len(r.changes))
	for _, c := range r.changes {
		out[string(c.Kind)+":"+c.Event.ID] = c.Kind
	}
	return out
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("evt-%d", n)
	}
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then the collection exists and is empty", func() {
			So(svc, ShouldNotBeNil)
			So(svc.List(context.Background()), ShouldBeEmpty)
			So(svc.GetStats().Started, ShouldBeFalse)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(16),
			service.WithIDGenerator(sequentialIDs()),
		)

		Convey("Then the options are reflected in its stats", func() {
			So(svc.GetStats().WorkerCount, ShouldEqual, 3)
		})
	})
}

func TestService_Create(t *testing.T) {
	Convey("Given an empty service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithIDGenerator(sequentialIDs()))

		Convey("When creating a work meeting", func() {
			e, err := svc.Create(ctx, model.NewEvent{Title: "Team meeting", Date: "2025-03-01", Time: "09:00"})

			Convey("Then it is stored categorized and unarchived", func() {
				So(err, ShouldBeNil)
				So(e.ID, ShouldEqual, "evt-1")
				So(e.Category, ShouldEqual, model.CategoryWork)
				So(e.Archived, ShouldBeFalse)
				So(svc.List(ctx), ShouldResemble, []model.Event{e})
			})
		})

		Convey("When the keyword only appears in the notes", func() {
			e, err := svc.Create(ctx, model.NewEvent{Title: "Dinner", Date: "2025-03-01", Time: "19:00", Notes: "Mom's birthday"})

			Convey("Then the notes decide the category", func() {
				So(err, ShouldBeNil)
				So(e.Category, ShouldEqual, model.CategoryPersonal)
				So(e.Notes, ShouldEqual, "Mom's birthday")
			})
		})

		Convey("When nothing matches", func() {
			e, err := svc.Create(ctx, model.NewEvent{Title: "Gym", Date: "2025-03-01", Time: "07:00"})

			Convey("Then the event is Other", func() {
				So(err, ShouldBeNil)
				So(e.Category, ShouldEqual, model.CategoryOther)
			})
		})

		Convey("When required fields are missing", func() {
			_, err := svc.Create(ctx, model.NewEvent{Title: "Lunch", Date: "", Time: ""})

			Convey("Then a validation error names them and nothing is stored", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				var verr *service.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldResemble, []string{"date", "time"})
				So(svc.List(ctx), ShouldBeEmpty)
			})
		})

		Convey("When every field is empty", func() {
			_, err := svc.Create(ctx, model.NewEvent{})

			Convey("Then all three are reported", func() {
				var verr *service.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldResemble, []string{"title", "date", "time"})
			})
		})

		Convey("When a custom categorizer is configured", func() {
			svc := service.New(service.WithCategorizer(category.Func(func(string, string) model.Category {
				return model.CategoryPersonal
			})))
			e, err := svc.Create(ctx, model.NewEvent{Title: "Project review", Date: "2025-03-01", Time: "10:00"})

			Convey("Then it decides the category", func() {
				So(err, ShouldBeNil)
				So(e.Category, ShouldEqual, model.CategoryPersonal)
			})
		})
	})
}

func TestService_List(t *testing.T) {
	Convey("Given events created out of chronological order", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithIDGenerator(sequentialIDs()))

		for _, in := range []model.NewEvent{
			{Title: "B", Date: "2025-03-02", Time: "08:00"},
			{Title: "A", Date: "2025-03-01", Time: "23:59"},
			{Title: "C", Date: "2025-03-02", Time: "08:00"},
		} {
			_, err := svc.Create(ctx, in)
			So(err, ShouldBeNil)
		}

		Convey("When listing", func() {
			events := svc.List(ctx)

			Convey("Then they ascend with ties in creation order", func() {
				So(ids(events), ShouldResemble, []string{"evt-2", "evt-1", "evt-3"})
			})

			Convey("And mutating the result does not affect the store", func() {
				events[0].Title = "changed"
				So(svc.List(ctx)[0].Title, ShouldEqual, "A")
			})
		})
	})
}

func TestService_ArchiveAndDelete(t *testing.T) {
	Convey("Given two stored events", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithIDGenerator(sequentialIDs()))
		first, _ := svc.Create(ctx, model.NewEvent{Title: "Standup", Date: "2025-03-01", Time: "09:00"})
		second, _ := svc.Create(ctx, model.NewEvent{Title: "Gym", Date: "2025-03-01", Time: "18:00"})

		Convey("When archiving the first", func() {
			archived, err := svc.Archive(ctx, first.ID)

			Convey("Then only the archived flag changes", func() {
				So(err, ShouldBeNil)
				So(archived.Archived, ShouldBeTrue)
				first.Archived = true
				So(archived, ShouldResemble, first)

				got, _ := svc.Get(ctx, second.ID)
				So(got.Archived, ShouldBeFalse)
			})

			Convey("And archiving again is a no-op success", func() {
				again, err := svc.Archive(ctx, first.ID)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, archived)
			})
		})

		Convey("When archiving an unknown id", func() {
			_, err := svc.Archive(ctx, "nope")

			Convey("Then ErrNotFound is returned and nothing changes", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				So(svc.List(ctx), ShouldResemble, []model.Event{first, second})
			})
		})

		Convey("When deleting the first", func() {
			removed, err := svc.Delete(ctx, first.ID)

			Convey("Then the removed record is returned and the rest remain", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldResemble, first)
				So(svc.List(ctx), ShouldResemble, []model.Event{second})
			})

			Convey("And deleting it again reports not found", func() {
				_, err := svc.Delete(ctx, first.ID)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Changes(t *testing.T) {
	Convey("Given a started service with a recording publisher", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pub := &recordingPublisher{}
		svc := service.New(
			service.WithIDGenerator(sequentialIDs()),
			service.WithPublisher(pub),
			service.WithWorkerCount(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats().Started, ShouldBeTrue)

		Convey("When events go through their lifecycle and the service stops", func() {
			e, err := svc.Create(ctx, model.NewEvent{Title: "Client call", Date: "2025-03-01", Time: "10:00"})
			So(err, ShouldBeNil)
			_, err = svc.Archive(ctx, e.ID)
			So(err, ShouldBeNil)
			_, err = svc.Delete(ctx, e.ID)
			So(err, ShouldBeNil)
			_, _ = svc.Delete(ctx, "missing")

			svc.Stop()

			Convey("Then every successful mutation was published", func() {
				kinds := pub.kinds()
				So(kinds, ShouldHaveLength, 3)
				So(kinds, ShouldContainKey, "created:evt-1")
				So(kinds, ShouldContainKey, "archived:evt-1")
				So(kinds, ShouldContainKey, "deleted:evt-1")
				So(svc.GetStats().Started, ShouldBeFalse)
			})
		})

		Reset(func() {
			svc.Stop()
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a service with mixed events", t, func() {
		ctx := context.Background()
		svc := service.New()
		work, _ := svc.Create(ctx, model.NewEvent{Title: "Project sync", Date: "2025-03-01", Time: "09:00"})
		_, _ = svc.Create(ctx, model.NewEvent{Title: "Family dinner", Date: "2025-03-01", Time: "19:00"})
		_, _ = svc.Create(ctx, model.NewEvent{Title: "Gym", Date: "2025-03-02", Time: "07:00"})
		_, _ = svc.Archive(ctx, work.ID)

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then totals and categories are counted", func() {
				So(stats.Total, ShouldEqual, 3)
				So(stats.Archived, ShouldEqual, 1)
				So(stats.ByCategory[model.CategoryWork], ShouldEqual, 1)
				So(stats.ByCategory[model.CategoryPersonal], ShouldEqual, 1)
				So(stats.ByCategory[model.CategoryOther], ShouldEqual, 1)
			})
		})
	})
}
