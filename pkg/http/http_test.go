package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type renderRequest struct {
	Symbol  string    `json:"symbol" validate:"required"`
	Mode    string    `json:"mode" default:"hybrid" validate:"oneof=hybrid arrow"`
	Price   float64   `json:"price" validate:"gt=0"`
	Width   int       `json:"width" validate:"gte=0,lte=4096"`
	History []float64 `json:"history,omitempty" validate:"max=2"`
}

func newContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequest(t *testing.T) {
	c, _ := newContext(`{"symbol":"BTC","price":10}`)
	var req renderRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if req.Mode != "hybrid" {
		t.Fatalf("default mode not applied: %q", req.Mode)
	}

	c, _ = newContext(`{"mode":"radar","price":-1}`)
	errs := ReadAndValidateRequest(c, &renderRequest{})
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", errs)
	}
	if errs[0].Code != "ERR_REQUIRED" || errs[0].Field != "symbol" || errs[0].Message != "symbol is required" {
		t.Fatalf("first error = %+v", errs[0])
	}
	if errs[1].Code != "ERR_ONEOF" || errs[1].Message != "mode must be one of: hybrid, arrow" {
		t.Fatalf("second error = %+v", errs[1])
	}
	if errs[2].Code != "ERR_GT" || errs[2].Params["value"] != "0" {
		t.Fatalf("third error = %+v", errs[2])
	}
}

func TestReadAndValidateBounds(t *testing.T) {
	c, _ := newContext(`{"symbol":"BTC","price":1,"width":5000,"history":[1,2,3]}`)
	errs := ReadAndValidateRequest(c, &renderRequest{})
	if len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", errs)
	}
	if errs[0].Code != "ERR_LTE" || errs[0].Field != "width" || errs[0].Message != "width must be at most 4096" {
		t.Fatalf("width error = %+v", errs[0])
	}
	if errs[1].Code != "ERR_MAX" || errs[1].Message != "history must hold at most 2 items" {
		t.Fatalf("history error = %+v", errs[1])
	}
}

func TestReadAndValidateBadJSON(t *testing.T) {
	c, _ := newContext(`{"symbol":`)
	errs := ReadAndValidateRequest(c, &renderRequest{})
	if len(errs) != 1 || errs[0].Code != "ERR_BIND" {
		t.Fatalf("unexpected %v", errs)
	}
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext("")
	if err := AppErrorResponse(c, TooManyRequestsError("slow down")); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status int         `json:"status"`
		Data   []*AppError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != http.StatusTooManyRequests || body.Data[0].Code != "ERR_RATE_LIMITED" {
		t.Fatalf("body = %+v", body)
	}

	c, rec = newContext("")
	_ = AppErrorResponse(c, errors.New("db down"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("plain error status = %d", rec.Code)
	}
}

func TestAppErrorWrap(t *testing.T) {
	cause := errors.New("boom")
	err := InternalError("render failed").WithError(cause).WithParam("mode", "arrow")
	if !errors.Is(err, cause) {
		t.Fatal("cause should unwrap")
	}
	if err.Error() != "render failed: boom" || err.Params["mode"] != "arrow" {
		t.Fatalf("unexpected %v %v", err, err.Params)
	}
}
