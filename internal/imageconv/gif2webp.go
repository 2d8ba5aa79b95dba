package imageconv

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"os"
	"strconv"
	"time"

	"golang.org/x/image/draw"

	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/process"
)

// Gif2WebP defaults.
const (
	Gif2WebPBinary          = "gif2webp"
	DefaultGif2WebPQuality  = 80
	DefaultConverterTimeout = 60 * time.Second
)

// Runner executes an allow-listed binary. *process.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, stdin []byte, timeout time.Duration) (*process.Result, error)
}

// Gif2WebP converts GIF to WebP with the external gif2webp tool, keeping
// animation. Input and output go through temp files.
type Gif2WebP struct {
	Runner  Runner
	Quality int           // 0 means DefaultGif2WebPQuality
	Timeout time.Duration // 0 means DefaultConverterTimeout
}

// Name implements Strategy.
func (g *Gif2WebP) Name() string { return Gif2WebPBinary }

// Accepts implements Strategy.
func (g *Gif2WebP) Accepts(job Job) bool {
	return job.Source == FormatGIF && job.Target == FormatWebP
}

// Convert implements Strategy.
func (g *Gif2WebP) Convert(ctx context.Context, job Job) (*Output, error) {
	if g.Runner == nil {
		return nil, fmt.Errorf("%w: %w", process.ErrSubprocess, process.ErrBinaryNotFound)
	}

	// Read dimensions up front; a GIF the decoder rejects is not worth a subprocess.
	cfg, err := gif.DecodeConfig(bytes.NewReader(job.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// gif2webp cannot resize, so wide animations are scaled here first.
	src := job.Data
	if job.MaxWidth > 0 && cfg.Width > job.MaxWidth {
		src, cfg, err = shrinkGIF(job.Data, job.MaxWidth)
		if err != nil {
			return nil, err
		}
	}

	inPath, cleanupIn, err := fileutil.WriteTempFile(src, "gif")
	if err != nil {
		return nil, err
	}
	defer cleanupIn()

	outPath, cleanupOut, err := fileutil.TempPath("webp")
	if err != nil {
		return nil, err
	}
	defer cleanupOut()

	quality := g.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultGif2WebPQuality
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultConverterTimeout
	}

	args := []string{"-quiet", "-q", strconv.Itoa(quality), inPath, "-o", outPath}
	if _, err := g.Runner.Run(ctx, Gif2WebPBinary, args, nil, timeout); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath) // #nosec G304 -- path from our own temp file
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s output: %v", process.ErrSubprocess, Gif2WebPBinary, err)
	}
	if !isWebP(data) {
		return nil, fmt.Errorf("%w: %s produced no WebP output", process.ErrSubprocess, Gif2WebPBinary)
	}

	return &Output{
		Data:   data,
		Format: FormatWebP,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// shrinkGIF scales every frame of an animated GIF to maxWidth, keeping the
// aspect ratio, palette, delays and disposal. Nearest-neighbour sampling
// keeps palette indices exact so transparency survives.
func shrinkGIF(data []byte, maxWidth int) ([]byte, image.Config, error) {
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, image.Config{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	w, h := anim.Config.Width, anim.Config.Height
	if w <= maxWidth {
		return data, anim.Config, nil
	}
	newW := maxWidth
	newH := max(1, (h*newW+w/2)/w)

	scale := func(r image.Rectangle) image.Rectangle {
		out := image.Rect(r.Min.X*newW/w, r.Min.Y*newH/h, r.Max.X*newW/w, r.Max.Y*newH/h)
		if out.Dx() == 0 {
			out.Max.X = min(out.Min.X+1, newW)
			out.Min.X = out.Max.X - 1
		}
		if out.Dy() == 0 {
			out.Max.Y = min(out.Min.Y+1, newH)
			out.Min.Y = out.Max.Y - 1
		}
		return out
	}
	for i, frame := range anim.Image {
		r := scale(frame.Bounds())
		dst := image.NewPaletted(r, frame.Palette)
		draw.NearestNeighbor.Scale(dst, r, frame, frame.Bounds(), draw.Src, nil)
		anim.Image[i] = dst
	}
	anim.Config.Width, anim.Config.Height = newW, newH

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, image.Config{}, fmt.Errorf("%w: re-encoding scaled GIF: %v", ErrDecode, err)
	}
	return buf.Bytes(), anim.Config, nil
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
