package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/service/ratelimit"
	"github.com/Shillmaster/JJcbjee/internal/usecase"
	xlogger "github.com/Shillmaster/JJcbjee/pkg/logger"
)

type fakeUsecase struct {
	signalErr error
	lastFrom  time.Time
	lastTo    time.Time
	lastLimit int
}

func (f *fakeUsecase) Signal(_ context.Context, req *models.SignalRequest) (*models.SignalEvent, error) {
	if f.signalErr != nil {
		return nil, f.signalErr
	}
	return &models.SignalEvent{
		ID:     "evt-1",
		Symbol: req.Symbol,
		Signal: models.TimingSignal{Bias: models.BiasBullish, TimingAction: models.ActionEnter, Confidence: 70},
	}, nil
}

func (f *fakeUsecase) Render(_ context.Context, req *models.RenderRequest) (*usecase.RenderResult, error) {
	return &usecase.RenderResult{ID: "r-1", ContentType: "image/png", Body: []byte("\x89PNG"), Signal: models.TimingSignal{Bias: models.BiasNeutral}}, nil
}

func (f *fakeUsecase) History(_ context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalEvent, error) {
	f.lastFrom, f.lastTo, f.lastLimit = from, to, limit
	return []*models.SignalEvent{{ID: "a", Symbol: symbol}}, nil
}

func newTestServer(uc ForecastUsecase, limiter *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	NewForecastEchoHandler(xlogger.Nop(), uc, limiter).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const signalBody = `{"symbol":"BTC","currentPrice":100,"focusPack":{"forecast":{"pricePath":[101]}}}`

func TestSignalEndpoint(t *testing.T) {
	e := newTestServer(&fakeUsecase{}, nil)
	rec := do(e, http.MethodPost, "/api/v1/signal", signalBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var body struct {
		Data SignalResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Event.ID != "evt-1" || body.Data.Summary.Title != "7D OUTLOOK" || body.Data.Summary.Hint == "" {
		t.Fatalf("unexpected response %+v", body.Data)
	}
}

func TestSignalValidation(t *testing.T) {
	e := newTestServer(&fakeUsecase{}, nil)
	rec := do(e, http.MethodPost, "/api/v1/signal", `{"currentPrice":100}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ERR_REQUIRED") {
		t.Fatalf("missing validation code: %s", rec.Body)
	}
}

func TestSignalErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{usecase.ErrNoForecast, http.StatusUnprocessableEntity},
		{usecase.ErrInvalidRequest, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		e := newTestServer(&fakeUsecase{signalErr: c.err}, nil)
		if rec := do(e, http.MethodPost, "/api/v1/signal", signalBody); rec.Code != c.code {
			t.Errorf("%v: status %d, want %d", c.err, rec.Code, c.code)
		}
	}
}

func TestRenderEndpoint(t *testing.T) {
	e := newTestServer(&fakeUsecase{}, nil)
	rec := do(e, http.MethodPost, "/api/v1/render", signalBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(echo.HeaderContentType) != "image/png" || rec.Header().Get("X-Render-Id") != "r-1" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}

	rec = do(e, http.MethodPost, "/api/v1/render", `{"symbol":"BTC","currentPrice":1,"mode":"radar","focusPack":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad mode status = %d", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	uc := &fakeUsecase{}
	e := newTestServer(uc, nil)
	rec := do(e, http.MethodGet, "/api/v1/signals?symbol=BTC&from=2024-01-01&to=2024-02-01&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if uc.lastLimit != 5 || uc.lastFrom.Month() != time.January || uc.lastTo.Month() != time.February {
		t.Fatalf("unexpected query %v %v %d", uc.lastFrom, uc.lastTo, uc.lastLimit)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("unexpected body %s", rec.Body)
	}

	if rec := do(e, http.MethodGet, "/api/v1/signals?symbol=BTC&from=yesterday", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad time status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/signals", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing symbol status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	e := newTestServer(&fakeUsecase{}, ratelimit.New(2, 0.001))
	for i := 0; i < 2; i++ {
		if rec := do(e, http.MethodPost, "/api/v1/signal", signalBody); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(e, http.MethodPost, "/api/v1/signal", signalBody)
	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), "ERR_RATE_LIMITED") {
		t.Fatalf("expected 429, got %d %s", rec.Code, rec.Body)
	}
	if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz should bypass the limiter, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := NewForecastEchoHandler(xlogger.Nop(), &fakeUsecase{}, nil)
	h.AddHealthCheck("journal", func(context.Context) error { return errors.New("down") })
	e := echo.New()
	h.RegisterRoutes(e)
	rec := do(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "down") {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body)
	}
}
