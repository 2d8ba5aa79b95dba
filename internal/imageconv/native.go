package imageconv

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// Native defaults.
const (
	DefaultMaxPixels   = 50_000_000
	DefaultJPEGQuality = 85
)

// Native decodes and re-encodes in process. It accepts every job whose
// target it can encode. Animated GIFs lose all frames but the first.
type Native struct {
	MaxPixels   int // 0 means DefaultMaxPixels
	JPEGQuality int // 0 means DefaultJPEGQuality
}

// Name implements Strategy.
func (n *Native) Name() string { return "native" }

// Accepts implements Strategy.
func (n *Native) Accepts(job Job) bool {
	switch job.Target {
	case FormatWebP, FormatPNG, FormatJPEG:
		return true
	default:
		return false
	}
}

// Convert implements Strategy.
func (n *Native) Convert(ctx context.Context, job Job) (*Output, error) {
	maxPixels := n.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	// Check dimensions before allocating the full bitmap.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(job.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(job.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = fitWidth(img, job.MaxWidth)

	var buf bytes.Buffer
	switch job.Target {
	case FormatWebP:
		err = nativewebp.Encode(&buf, img, nil)
	case FormatPNG:
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, img)
	case FormatJPEG:
		quality := n.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: quality})
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrUnsupportedFormat, job.Target)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	b := img.Bounds()
	return &Output{
		Data:   buf.Bytes(),
		Format: job.Target,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fitWidth scales img down to maxWidth, keeping the aspect ratio.
func fitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// flatten composites img over white; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
