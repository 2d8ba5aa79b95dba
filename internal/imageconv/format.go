package imageconv

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Decoders for every accepted source format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Format identifies a raster image encoding.
type Format string

// Supported formats.
const (
	FormatUnknown Format = ""
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
)

// ParseFormat parses a target format name as found in configuration.
// Only formats the in-process encoder can produce are accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "webp":
		return FormatWebP, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q (valid: webp, png, jpeg)", ErrUnsupportedFormat, s)
	}
}

// Ext returns the file extension used for the format, without a dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatUnknown:
		return "bin"
	default:
		return string(f)
	}
}

// MIMEType returns the media type of the format.
func (f Format) MIMEType() string {
	if f == FormatUnknown {
		return "application/octet-stream"
	}
	return "image/" + string(f)
}

// FormatFromMIME maps an image media type to a Format.
func FormatFromMIME(mt string) Format {
	switch strings.ToLower(mt) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/gif":
		return FormatGIF
	case "image/webp":
		return FormatWebP
	case "image/bmp", "image/x-ms-bmp":
		return FormatBMP
	case "image/tiff":
		return FormatTIFF
	default:
		return FormatUnknown
	}
}

// FormatFromExt maps a file extension (with or without dot) to a Format.
func FormatFromExt(ext string) Format {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "webp":
		return FormatWebP
	case "bmp":
		return FormatBMP
	case "tif", "tiff":
		return FormatTIFF
	default:
		return FormatUnknown
	}
}

// DetectFormat sniffs the encoding from the image header.
func DetectFormat(data []byte) Format {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FormatUnknown
	}
	return Format(name)
}
