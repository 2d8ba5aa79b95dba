// Package fonts localizes Google Fonts into the output tree so a built
// site makes no third-party requests.
//
// For every family and weight the css2 API is fetched, the first
// fonts.gstatic.com file it references is downloaded as woff2, and a
// fonts.css with matching @font-face rules is written. All requests go
// through the resource fetcher under fetch.FontPolicy.
package fonts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-stattic/internal/fetch"
	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/pathsafe"
)

// Output locations relative to the output root.
const (
	FontsDir = "assets/fonts"
	CSSPath  = "assets/css/fonts.css"
)

// DefaultWeights are the weights downloaded per family.
var DefaultWeights = []int{400, 700}

const (
	cssAPI      = "https://fonts.googleapis.com/css2?family=%s:wght@%d&display=swap"
	maxParallel = 4
)

var (
	gstaticURL  = regexp.MustCompile(`url\((https://fonts\.gstatic\.com/[^)\s]+)\)`)
	familyChars = regexp.MustCompile(`^[A-Za-z0-9 ]{1,64}$`)
)

// Getter retrieves a remote resource. *fetch.Fetcher satisfies it.
type Getter interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Face is one downloaded family and weight.
type Face struct {
	Family string
	Weight int
	File   string // file name under FontsDir
}

// Downloader fetches font files.
type Downloader struct {
	getter  Getter
	weights []int
	logger  *slog.Logger
}

// New creates a Downloader. A nil logger discards output.
func New(getter Getter, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Downloader{getter: getter, weights: DefaultWeights, logger: logger}
}

// Download localizes families under outputDir and writes fonts.css. Files
// already present are reused without a request. Fetch failures are logged
// and skipped; the returned error reports filesystem failures only. The
// returned faces are those available after the run, in family order.
func (d *Downloader) Download(ctx context.Context, outputDir string, families []string) ([]Face, error) {
	var (
		mu    sync.Mutex
		faces = make(map[string]Face)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for _, family := range families {
		family = strings.TrimSpace(family)
		if !familyChars.MatchString(family) {
			d.logger.Warn("skipping font with invalid family name", logfields.Entity(family))
			continue
		}
		for _, weight := range d.weights {
			g.Go(func() error {
				face, ok, err := d.face(ctx, outputDir, family, weight)
				if err != nil {
					return err
				}
				if ok {
					mu.Lock()
					faces[faceKey(family, weight)] = face
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ordered []Face
	for _, family := range families {
		for _, weight := range d.weights {
			if f, ok := faces[faceKey(strings.TrimSpace(family), weight)]; ok {
				ordered = append(ordered, f)
			}
		}
	}
	if len(ordered) == 0 {
		return nil, nil
	}

	cssPath, err := pathsafe.Resolve(outputDir, CSSPath)
	if err != nil {
		return nil, err
	}
	if err := fileutil.WriteFileAtomic(cssPath, []byte(Stylesheet(ordered))); err != nil {
		return nil, fmt.Errorf("writing fonts.css: %w", err)
	}
	return ordered, nil
}

// face returns the local file for one family and weight, downloading it
// when missing.
func (d *Downloader) face(ctx context.Context, outputDir, family string, weight int) (Face, bool, error) {
	file := pathsafe.Slug(family) + "-" + strconv.Itoa(weight) + ".woff2"
	face := Face{Family: family, Weight: weight, File: file}

	target, err := pathsafe.Resolve(outputDir, FontsDir+"/"+file)
	if err != nil {
		return face, false, err
	}
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		d.logger.Debug("font cached", logfields.Path(file))
		return face, true, nil
	}

	cssURL := fmt.Sprintf(cssAPI, strings.ReplaceAll(family, " ", "+"), weight)
	css, err := d.getter.Fetch(ctx, cssURL)
	if err != nil {
		d.logger.Warn("font stylesheet fetch failed", logfields.URL(cssURL), logfields.Error(err))
		return face, false, nil
	}

	m := gstaticURL.FindSubmatch(css.Body)
	if m == nil {
		d.logger.Warn("font stylesheet has no font file", logfields.URL(cssURL))
		return face, false, nil
	}

	font, err := d.getter.Fetch(ctx, string(m[1]))
	if err != nil {
		d.logger.Warn("font file fetch failed", logfields.URL(string(m[1])), logfields.Error(err))
		return face, false, nil
	}
	if err := fileutil.WriteFileAtomic(target, font.Body); err != nil {
		return face, false, fmt.Errorf("writing %s: %w", file, err)
	}
	d.logger.Info("downloaded font", logfields.Entity(family), logfields.Path(file))
	return face, true, nil
}

// Stylesheet renders @font-face rules for faces and sets the first family
// as the body font.
func Stylesheet(faces []Face) string {
	var b strings.Builder
	b.WriteString("/* Google Fonts, downloaded for offline use */\n\n")
	for _, f := range faces {
		fmt.Fprintf(&b, "@font-face {\n  font-family: '%s';\n  font-style: normal;\n  font-weight: %d;\n  font-display: swap;\n  src: url('../fonts/%s') format('woff2');\n}\n\n",
			f.Family, f.Weight, f.File)
	}
	if len(faces) > 0 {
		fmt.Fprintf(&b, "body {\n  font-family: '%s', sans-serif;\n}\n", faces[0].Family)
	}
	return b.String()
}

func faceKey(family string, weight int) string {
	return family + "\x00" + strconv.Itoa(weight)
}
