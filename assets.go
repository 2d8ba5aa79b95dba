package stattic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/imageconv"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/metrics"
	"github.com/alnah/go-stattic/internal/pathsafe"
)

// ImagesDir is where converted images land, relative to the output root.
const ImagesDir = "images"

// localImage is the cached outcome for one image key.
type localImage struct {
	rel      string // output-root-relative, e.g. "images/photo-1a2b3c4d.webp"
	status   ImageStatus
	strategy string
	note     string
	err      error
}

// imageStore localizes images for every worker. A key (remote URL or
// local source path) is fetched and converted at most once per build;
// concurrent requests for the same key wait for the first one.
type imageStore struct {
	outputDir  string // absolute
	contentDir string // absolute
	converter  Converter
	target     imageconv.Format
	maxWidth   int
	maxBytes   int64
	registry   *pathsafe.Registry
	logger     *slog.Logger
	metrics    metrics.Recorder

	group singleflight.Group
	mu    sync.Mutex
	done  map[string]localImage
}

func newImageStore(s Settings, converter Converter, logger *slog.Logger, rec metrics.Recorder) *imageStore {
	return &imageStore{
		outputDir:  s.OutputDir,
		contentDir: s.ContentDir,
		converter:  converter,
		target:     s.ImageFormat,
		maxWidth:   s.MaxWidth,
		maxBytes:   s.MaxBytes,
		registry:   pathsafe.NewRegistry(),
		logger:     logger,
		metrics:    rec,
		done:       make(map[string]localImage),
	}
}

// refKind tells how a reference is handled.
type refKind int

const (
	refIgnored refKind = iota
	refRemote
	refLocal
	refAbsolute
)

// classifyRef returns the kind of ref and, for remote refs, the URL to
// fetch. Protocol-relative refs are promoted to https.
func classifyRef(ref string) (refKind, string) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return refIgnored, ""
	case fileutil.IsURL(ref):
		if strings.HasPrefix(ref, "//") {
			return refRemote, "https:" + ref
		}
		return refRemote, ref
	case strings.HasPrefix(ref, "/"), strings.HasPrefix(ref, "\\"):
		return refAbsolute, ""
	}

	// data:, mailto: and other schemes never name a file to localize.
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" {
		return refIgnored, ""
	}
	return refLocal, ""
}

// localize returns the record for ref as seen from an entity whose
// source file is entityID (content-relative). fetcher belongs to the
// calling worker.
func (s *imageStore) localize(ctx context.Context, fetcher Fetcher, entityID, ref string) ImageRecord {
	rec := ImageRecord{Ref: ref}

	kind, remote := classifyRef(ref)
	var key string
	var load func(context.Context) ([]byte, imageconv.Format, error)

	switch kind {
	case refIgnored:
		return ImageRecord{}
	case refAbsolute:
		rec.Status = ImageSkipped
		return rec
	case refRemote:
		key = remote
		load = func(ctx context.Context) ([]byte, imageconv.Format, error) {
			return s.fetchRemote(ctx, fetcher, remote)
		}
	case refLocal:
		src, err := s.localSource(entityID, ref)
		if err != nil {
			return s.fail(rec, entityID, err)
		}
		key = "file:" + src
		load = func(context.Context) ([]byte, imageconv.Format, error) {
			return s.readLocal(src)
		}
	}

	img, reused, err := s.resolve(ctx, key, load)
	if err != nil {
		return s.fail(rec, entityID, err)
	}

	rec.Local = img.rel
	rec.Status = img.status
	rec.Strategy = img.strategy
	rec.Note = img.note
	rec.Reused = reused
	if reused {
		s.metrics.IncImageResult(metrics.ImageReused)
	}
	return rec
}

// resolve returns the cached result for key or produces it once.
func (s *imageStore) resolve(ctx context.Context, key string, load func(context.Context) ([]byte, imageconv.Format, error)) (localImage, bool, error) {
	s.mu.Lock()
	img, ok := s.done[key]
	s.mu.Unlock()
	if ok {
		return img, true, img.err
	}

	ran := false
	v, err, _ := s.group.Do(key, func() (any, error) {
		// A flight for key may have finished between the check above
		// and this call.
		s.mu.Lock()
		img, ok := s.done[key]
		s.mu.Unlock()
		if ok {
			return img, img.err
		}

		ran = true
		img = s.produce(ctx, key, load)
		// Cancellation is not a property of the image; let a later
		// caller try again.
		if img.err == nil || ctx.Err() == nil {
			s.mu.Lock()
			s.done[key] = img
			s.mu.Unlock()
		}
		return img, img.err
	})
	img = v.(localImage)
	return img, !ran, err
}

// produce loads, converts and writes one image.
func (s *imageStore) produce(ctx context.Context, key string, load func(context.Context) ([]byte, imageconv.Format, error)) localImage {
	data, source, err := load(ctx)
	if err != nil {
		return localImage{err: err}
	}

	start := time.Now()
	out, err := s.converter.Convert(ctx, imageconv.Job{
		Data:     data,
		Source:   source,
		Target:   s.target,
		MaxBytes: s.maxBytes,
		MaxWidth: s.maxWidth,
	})
	if err != nil {
		return localImage{err: err}
	}
	s.metrics.ObserveConversionDuration(out.Strategy, time.Since(start))

	name, err := s.registry.Name(key, pathsafe.Stem(strings.TrimPrefix(key, "file:")), out.Format.Ext())
	if err != nil {
		return localImage{err: err}
	}
	rel := ImagesDir + "/" + name
	target, err := pathsafe.Resolve(s.outputDir, rel)
	if err != nil {
		return localImage{err: err}
	}
	if err := fileutil.WriteFileAtomic(target, out.Data); err != nil {
		return localImage{err: fmt.Errorf("%w: %v", ErrFilesystemFailure, err)}
	}

	img := localImage{rel: rel, status: ImageConverted, strategy: out.Strategy, note: out.Note}
	if out.Fallback {
		img.status = ImageFallback
		s.metrics.IncImageResult(metrics.ImageFallback)
		s.logger.Warn("image converted with fallback",
			logfields.URL(key), logfields.Strategy(out.Strategy), logfields.Reason(out.Note))
	} else {
		s.metrics.IncImageResult(metrics.ImageConverted)
	}
	return img
}

func (s *imageStore) fetchRemote(ctx context.Context, fetcher Fetcher, rawURL string) ([]byte, imageconv.Format, error) {
	res, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.metrics.IncFetchResult(string(Classify(err)))
		return nil, "", err
	}
	s.metrics.IncFetchResult("ok")
	return res.Body, imageconv.FormatFromMIME(res.ContentType), nil
}

// localSource resolves ref against the directory of the entity's source
// file. The result, with symlinks followed, must stay inside the content
// directory.
func (s *imageStore) localSource(entityID, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFilesystemFailure, err)
	}
	rel := path.Clean(path.Join(path.Dir(entityID), strings.ReplaceAll(u.Path, "\\", "/")))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %q leaves the content directory", ErrPathTraversal, ref)
	}
	return pathsafe.ResolveReal(s.contentDir, rel)
}

func (s *imageStore) readLocal(src string) ([]byte, imageconv.Format, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFilesystemFailure, err)
	}
	if !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("%w: %s is not a regular file", ErrFilesystemFailure, src)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPolicyRejected, path.Base(src), info.Size(), s.maxBytes)
	}
	data, err := os.ReadFile(src) // #nosec G304 -- confined to the content dir by localSource
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFilesystemFailure, err)
	}
	return data, imageconv.FormatFromExt(path.Ext(src)), nil
}

// fail records a failed reference and logs it. Path traversal is an
// error; every other cause keeps the original reference with a warning.
func (s *imageStore) fail(rec ImageRecord, entityID string, err error) ImageRecord {
	rec.Status = ImageFailed
	rec.Reason = Classify(err)
	rec.Err = err
	s.metrics.IncImageResult(metrics.ImageFailed)

	attrs := []any{logfields.Entity(entityID), logfields.URL(rec.Ref), logfields.Reason(string(rec.Reason)), logfields.Error(err)}
	if rec.Reason == ReasonPathTraversal {
		s.logger.Error("image rejected", attrs...)
	} else if !errors.Is(err, context.Canceled) {
		s.logger.Warn("image kept as original", attrs...)
	}
	return rec
}
