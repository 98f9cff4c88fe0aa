// Package stitch composes viewport screenshots of one page into a single
// tall image.
//
// Segments are decoded concurrently and joined before anything is drawn,
// each segment at row index*H where H is the height of segment 0. All
// segments are assumed to share segment 0's dimensions; mismatches are
// logged and clipped to their band, never rejected.
package stitch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"time"

	"golang.org/x/sync/errgroup"

	"pageshot/internal/download"
	"pageshot/internal/observability"
)

// ErrNoSegments is returned for an empty capture result.
var ErrNoSegments = errors.New("stitch: no segments")

// DecodeError reports the segment that could not be decoded.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("stitch: decode segment %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder turns one payload into an image. index is the payload's position
// in the capture result.
type Decoder func(ctx context.Context, index int, payload []byte) (image.Image, error)

func defaultDecoder(_ context.Context, _ int, payload []byte) (image.Image, error) {
	return DecodePayload(payload)
}

type Stitcher struct {
	decode  Decoder
	timeout time.Duration
	logger  *observability.Logger
	now     func() time.Time
}

type Option func(*Stitcher)

func WithDecoder(d Decoder) Option {
	return func(s *Stitcher) { s.decode = d }
}

// WithDecodeTimeout bounds the whole decode join. Zero waits forever.
func WithDecodeTimeout(d time.Duration) Option {
	return func(s *Stitcher) { s.timeout = d }
}

func WithLogger(l *observability.Logger) Option {
	return func(s *Stitcher) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Stitcher) { s.now = now }
}

func New(opts ...Option) *Stitcher {
	s := &Stitcher{
		decode: defaultDecoder,
		logger: observability.Discard(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Compose decodes every payload and stacks them vertically in input order.
func (s *Stitcher) Compose(ctx context.Context, payloads [][]byte) (*image.RGBA, error) {
	if len(payloads) == 0 {
		return nil, ErrNoSegments
	}

	images, err := s.decodeAll(ctx, payloads)
	if err != nil {
		return nil, err
	}

	ref := images[0].Bounds()
	w, h := ref.Dx(), ref.Dy()
	composite := image.NewRGBA(image.Rect(0, 0, w, len(images)*h))

	for i, img := range images {
		b := img.Bounds()
		if b.Dx() != w || b.Dy() != h {
			s.logger.Warn("Segment size differs from first segment",
				"segment", i,
				"width", b.Dx(),
				"height", b.Dy(),
				"expected_width", w,
				"expected_height", h,
			)
		}
		band := image.Rect(0, i*h, w, (i+1)*h)
		draw.Draw(composite, band, img, b.Min, draw.Src)
	}

	return composite, nil
}

// Stitch composes the payloads and exports the result as a PNG artifact
// named after label.
func (s *Stitcher) Stitch(ctx context.Context, payloads [][]byte, label string) (*download.Artifact, error) {
	composite, err := s.Compose(ctx, payloads)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, composite); err != nil {
		return nil, fmt.Errorf("stitch: encode png: %w", err)
	}

	b := composite.Bounds()
	return &download.Artifact{
		Location:   label,
		FileName:   download.FileName(label),
		Data:       buf.Bytes(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		Segments:   len(payloads),
		CapturedAt: s.now(),
	}, nil
}

func (s *Stitcher) decodeAll(ctx context.Context, payloads [][]byte) ([]image.Image, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	images := make([]image.Image, len(payloads))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range payloads {
		i, p := i, p
		g.Go(func() error {
			img, err := s.decodeOne(gctx, i, p)
			if err != nil {
				return &DecodeError{Index: i, Err: err}
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// decodeOne runs the decoder in its own goroutine so a decoder that never
// returns still yields to ctx.
func (s *Stitcher) decodeOne(ctx context.Context, i int, p []byte) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	ch := make(chan result, 1)
	go func() {
		img, err := s.decode(ctx, i, p)
		ch <- result{img, err}
	}()

	select {
	case r := <-ch:
		if r.err == nil && r.img == nil {
			return nil, errors.New("decoder returned no image")
		}
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
