package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"time"
)

// MockProvider returns a small solid-color PNG derived from the prompt, for
// local development without an API key.
type MockProvider struct {
	latency time.Duration
}

func NewMockProvider(latency time.Duration) *MockProvider {
	return &MockProvider{latency: latency}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Image, error) {
	if m.latency > 0 {
		if err := sleepCtx(ctx, m.latency); err != nil {
			return nil, classifyTransportError(ctx, err)
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Prompt))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}

	w, hgt := dimensions(req.AspectRatio)
	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for y := range hgt {
		for x := range w {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode mock png: %w", err)
	}
	return &Image{Data: base64.StdEncoding.EncodeToString(buf.Bytes()), MimeType: "image/png"}, nil
}

func dimensions(aspect string) (int, int) {
	switch aspect {
	case "3:4":
		return 48, 64
	case "4:3":
		return 64, 48
	case "9:16":
		return 36, 64
	case "16:9":
		return 64, 36
	default:
		return 64, 64
	}
}
