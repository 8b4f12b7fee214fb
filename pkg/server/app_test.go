package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/handler/ws"
	mid "github.com/Shillmaster/JJcbjee/internal/middleware"
	"github.com/Shillmaster/JJcbjee/internal/service/ratelimit"
	"github.com/Shillmaster/JJcbjee/pkg/config"
	applogger "github.com/Shillmaster/JJcbjee/pkg/logger"
)

type nopSink struct{}

func (nopSink) Emit(context.Context, *models.SignalRequest) (*models.SignalEvent, error) {
	return &models.SignalEvent{}, nil
}

func TestAppStartShutdown(t *testing.T) {
	cfg := config.Default()
	closed := []string{}
	boom := errors.New("close failed")

	app := New(cfg, applogger.Nop(), Deps{
		Hub:      ws.NewHub(ws.HubConfig{}, nil, nil),
		Pipeline: mid.NewSignalPipeline(nopSink{}, nil, nil),
		Limiter:  ratelimit.New(5, 1),
		Closers: []Closer{
			{Name: "cache", Close: func() error { closed = append(closed, "cache"); return nil }},
			{Name: "journal", Close: func() error { closed = append(closed, "journal"); return boom }},
			{Name: "none"},
		},
	})

	if err := app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := app.Shutdown(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("shutdown should report close errors, got %v", err)
	}
	if len(closed) != 2 || closed[0] != "cache" || closed[1] != "journal" {
		t.Fatalf("closers ran as %v", closed)
	}
}
