package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/minisched/internal/adapters/http/api"
	service "github.com/okian/minisched/internal/app"
	"github.com/okian/minisched/internal/client"
	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := api.NewServer(service.New())
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	ts := httptest.NewServer(server.Handler(mux))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_Lifecycle(t *testing.T) {
	ts := newServer(t)
	c := client.New(ts.URL+"/", client.WithTimeout(5*time.Second))
	ctx := context.Background()

	events, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	later, err := c.Create(ctx, model.NewEvent{Title: "Family dinner", Date: "2025-03-02", Time: "19:00"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPersonal, later.Category)
	assert.NotEmpty(t, later.ID)

	earlier, err := c.Create(ctx, model.NewEvent{Title: "Client call", Date: "2025-03-01", Time: "10:00", Notes: "quarterly"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryWork, earlier.Category)

	events, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, earlier.ID, events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)

	archived, err := c.Archive(ctx, earlier.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	msg, err := c.Delete(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "Event is deleted successfully!", msg)

	events, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Event{archived}, events)
}

func TestClient_APIErrors(t *testing.T) {
	ts := newServer(t)
	c := client.New(ts.URL)
	ctx := context.Background()

	_, err := c.Create(ctx, model.NewEvent{Title: "No date"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title, date, and time are required.", apiErr.Message)

	_, err = c.Archive(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Event not found.", apiErr.Message)

	_, err = c.Delete(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "404")
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := client.New(url).List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrTransport))
}

func TestClient_DecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(ts.Close)

	_, err := client.New(ts.URL).List(context.Background())
	assert.ErrorIs(t, err, client.ErrDecode)
}
