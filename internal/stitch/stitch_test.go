package stitch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

var palette = []color.RGBA{
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{0, 0, 255, 255},
	{255, 255, 0, 255},
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func segments(t *testing.T, n, w, h int) [][]byte {
	t.Helper()
	out := make([][]byte, n)
	for i := range out {
		out[i] = encodePNG(t, solid(w, h, palette[i%len(palette)]))
	}
	return out
}

func TestComposeDimensionsAndLayout(t *testing.T) {
	const n, w, h = 3, 40, 25
	composite, err := New().Compose(context.Background(), segments(t, n, w, h))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	b := composite.Bounds()
	if b.Dx() != w || b.Dy() != n*h {
		t.Fatalf("composite = %dx%d, want %dx%d", b.Dx(), b.Dy(), w, n*h)
	}

	for i := 0; i < n; i++ {
		want := palette[i]
		for _, y := range []int{i * h, i*h + h/2, (i+1)*h - 1} {
			for _, x := range []int{0, w - 1} {
				if got := composite.RGBAAt(x, y); got != want {
					t.Errorf("pixel (%d,%d) = %v, want %v (segment %d)", x, y, got, want, i)
				}
			}
		}
	}
}

func TestComposeIgnoresDecodeCompletionOrder(t *testing.T) {
	payloads := segments(t, 4, 10, 10)

	inOrder, err := New().Compose(context.Background(), payloads)
	if err != nil {
		t.Fatalf("Compose in order: %v", err)
	}

	// The last segment finishes first, the first segment finishes last.
	reversed := WithDecoder(func(ctx context.Context, index int, p []byte) (image.Image, error) {
		time.Sleep(time.Duration(len(payloads)-index) * 15 * time.Millisecond)
		return DecodePayload(p)
	})
	outOfOrder, err := New(reversed).Compose(context.Background(), payloads)
	if err != nil {
		t.Fatalf("Compose reversed: %v", err)
	}

	if !bytes.Equal(inOrder.Pix, outOfOrder.Pix) {
		t.Error("composite depends on decode completion order")
	}
}

func TestComposeEmpty(t *testing.T) {
	_, err := New().Compose(context.Background(), nil)
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("Compose(nil) error = %v, want ErrNoSegments", err)
	}
}

func TestComposeDecodeFailure(t *testing.T) {
	payloads := segments(t, 3, 10, 10)
	payloads[1] = []byte("not an image")

	_, err := New().Compose(context.Background(), payloads)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Index != 1 {
		t.Errorf("DecodeError.Index = %d, want 1", de.Index)
	}
}

func TestComposeDecodeTimeout(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	stall := WithDecoder(func(ctx context.Context, index int, p []byte) (image.Image, error) {
		if index == 1 {
			<-block
		}
		return DecodePayload(p)
	})

	_, err := New(stall, WithDecodeTimeout(50*time.Millisecond)).Compose(context.Background(), segments(t, 2, 10, 10))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Index != 1 {
		t.Errorf("error = %v, want DecodeError for segment 1", err)
	}
}

func TestComposeNonUniformSegmentIsClipped(t *testing.T) {
	payloads := [][]byte{
		encodePNG(t, solid(20, 10, palette[0])),
		encodePNG(t, solid(30, 4, palette[1])),
	}

	composite, err := New().Compose(context.Background(), payloads)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if b := composite.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("composite = %dx%d, want 20x20", b.Dx(), b.Dy())
	}
	if got := composite.RGBAAt(19, 10); got != palette[1] {
		t.Errorf("pixel (19,10) = %v, want %v", got, palette[1])
	}
	if got := composite.RGBAAt(0, 15); got != (color.RGBA{}) {
		t.Errorf("pixel (0,15) = %v, want transparent", got)
	}
}

func TestStitchArtifact(t *testing.T) {
	at := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return at }))

	a, err := s.Stitch(context.Background(), segments(t, 2, 100, 200), "https://x.test/")
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}

	if a.FileName != "screenshot_https___x_test_.png" {
		t.Errorf("FileName = %q", a.FileName)
	}
	if a.Width != 100 || a.Height != 400 || a.Segments != 2 {
		t.Errorf("artifact = %dx%d/%d, want 100x400/2", a.Width, a.Height, a.Segments)
	}
	if !a.CapturedAt.Equal(at) {
		t.Errorf("CapturedAt = %v, want %v", a.CapturedAt, at)
	}

	img, err := png.Decode(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatalf("artifact is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 400 {
		t.Errorf("decoded artifact = %dx%d, want 100x400", b.Dx(), b.Dy())
	}
}

func TestDecodePayloadDataURL(t *testing.T) {
	raw := encodePNG(t, solid(3, 2, palette[2]))

	tests := []struct {
		name    string
		payload []byte
		wantErr bool
	}{
		{"raw png", raw, false},
		{"base64 data url", DataURL(raw), false},
		{"no comma", []byte("data:image/png;base64"), true},
		{"bad base64", []byte("data:image/png;base64,@@@"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodePayload(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodePayload error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2) {
				t.Errorf("decoded %v, want 3x2", img.Bounds())
			}
		})
	}
}
