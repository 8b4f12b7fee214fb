// Command render draws one forecast frame from a JSON request file
// without starting the service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/usecase"
	"github.com/Shillmaster/JJcbjee/pkg/logger"
)

func main() {
	in := flag.String("in", "", "render request JSON (stdin when empty)")
	out := flag.String("out", "forecast.png", "output file")
	mode := flag.String("mode", "", "hybrid or arrow (overrides the request)")
	format := flag.String("format", "", "png or ops (overrides the request)")
	profile := flag.String("profile", "", "full or compact (overrides the request)")
	width := flag.Int("width", 0, "canvas width")
	height := flag.Int("height", 0, "canvas height")
	summary := flag.Bool("summary", false, "draw the signal summary card")
	dpi := flag.Float64("dpi", 72, "text DPI")
	flag.Parse()

	req, err := readRequest(*in)
	if err != nil {
		log.Fatalf("read request: %v", err)
	}
	override(req, *mode, *format, *profile, *width, *height, *summary)

	svc := usecase.NewForecastService(usecase.ForecastServiceConfig{DPI: *dpi},
		logger.NewWriter(os.Stderr, zerolog.WarnLevel))
	res, err := svc.Render(context.Background(), req)
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	if err := os.WriteFile(*out, res.Body, 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func readRequest(path string) (*models.RenderRequest, error) {
	f := os.Stdin
	if path != "" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		defer f.Close()
	}
	req := &models.RenderRequest{}
	if err := json.NewDecoder(f).Decode(req); err != nil {
		return nil, err
	}
	if err := defaults.Set(req); err != nil {
		return nil, err
	}
	return req, nil
}

func override(req *models.RenderRequest, mode, format, profile string, width, height int, summary bool) {
	if mode != "" {
		req.Mode = mode
	}
	if format != "" {
		req.Format = format
	}
	if profile != "" {
		req.Profile = profile
	}
	if width > 0 {
		req.Width = width
	}
	if height > 0 {
		req.Height = height
	}
	if summary {
		req.Summary = true
	}
}
