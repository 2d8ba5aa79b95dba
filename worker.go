package stattic

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/dateutil"
	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/pathsafe"
	"github.com/alnah/go-stattic/internal/pipeline"
	"github.com/alnah/go-stattic/internal/render"
	"github.com/alnah/go-stattic/internal/site"
)

// worker builds entities one at a time. Its fetcher and markdown
// converter are private; settings, shared data and the renderer are
// read-only; the image store is the only coordinated shared resource.
type worker struct {
	id       int
	settings Settings
	shared   *content.Shared
	fetcher  Fetcher
	markdown pipeline.HTMLConverter
	renderer Renderer
	images   *imageStore
	logger   *slog.Logger
}

// close releases the worker's private resources.
func (w *worker) close() {
	if c, ok := w.fetcher.(interface{ Close() }); ok {
		c.Close()
	}
}

// process builds one entity. It never panics across the worker boundary
// and never returns an error: every outcome is a record.
func (w *worker) process(ctx context.Context, src content.Source) (rec EntityRecord) {
	start := time.Now()
	rec = EntityRecord{ID: src.ID, Kind: src.Kind, Worker: w.id}
	defer func() {
		if r := recover(); r != nil {
			rec.Status = StatusFailed
			rec.Err = fmt.Errorf("panic building %s: %v", src.ID, r)
			rec.Reason = ReasonUnknown
			rec.Post = nil
		}
		rec.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		return incomplete(rec, err)
	}

	post, out, images, err := w.build(ctx, src)
	rec.Images = images
	if err != nil {
		if ctx.Err() != nil {
			return incomplete(rec, ctx.Err())
		}
		if errors.Is(err, errDraft) {
			rec.Status = StatusSkipped
			return rec
		}
		rec.Status = StatusFailed
		rec.Err = err
		rec.Reason = Classify(err)
		w.logger.Error("entity failed", logfields.Entity(src.ID), logfields.Worker(w.id),
			logfields.Reason(string(rec.Reason)), logfields.Error(err))
		return rec
	}

	rec.Status = StatusSucceeded
	rec.OutputPath = out
	rec.Post = post
	w.logger.Debug("entity built", logfields.Entity(src.ID), logfields.Worker(w.id), logfields.Path(out),
		logfields.Count(len(images)), logfields.Duration(time.Since(start)))
	return rec
}

var errDraft = errors.New("draft")

func incomplete(rec EntityRecord, cause error) EntityRecord {
	rec.Status = StatusIncomplete
	rec.Reason = ReasonIncomplete
	rec.Err = fmt.Errorf("%w: %v", ErrIncomplete, cause)
	rec.Post = nil
	return rec
}

// build runs the entity pipeline: load, markdown, localize images,
// excerpt, render, write.
func (w *worker) build(ctx context.Context, src content.Source) (*site.Post, string, []ImageRecord, error) {
	ent, err := content.Load(src, w.settings.BlogSlug)
	if err != nil {
		return nil, "", nil, err
	}
	if ent.Draft() && !w.settings.Drafts {
		return nil, "", nil, errDraft
	}

	body, err := w.markdown.ToHTML(ctx, ent.Body)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	root := site.Root(ent.OutputPath)
	body, images, err := w.localizeBody(ctx, ent, body, root)
	if err != nil {
		return nil, "", images, err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", images, err
	}

	post := w.post(ent, body)
	if ref := ent.FeaturedImage(); ref != "" {
		img := w.images.localize(ctx, w.fetcher, ent.ID, ref)
		if img.Status != "" {
			images = append(images, img)
		}
		if img.Local != "" {
			post.FeaturedImage = img.Local
			post.FeaturedLocal = true
		}
	}

	entry := post.Entry(root, template.HTML(body)) // #nosec G203 -- rendered from the site's own Markdown
	title := ent.String("seo_title")
	if title == "" {
		title = post.Title
	}
	data := &render.Data{
		Site:        w.settings.Site,
		Root:        root,
		Title:       title,
		Description: post.Description,
		Entry:       &entry,
	}

	html, err := w.render(ent, data)
	if err != nil {
		return nil, "", images, err
	}

	target, err := pathsafe.Resolve(w.settings.OutputDir, ent.OutputPath)
	if err != nil {
		return nil, "", images, err
	}
	if err := fileutil.WriteFileAtomic(target, []byte(html)); err != nil {
		return nil, "", images, fmt.Errorf("%w: %v", ErrFilesystemFailure, err)
	}
	return post, ent.OutputPath, images, nil
}

// localizeBody localizes every image the body references and rewrites
// the references that succeeded. Failed references stay as written.
func (w *worker) localizeBody(ctx context.Context, ent *content.Entity, body, root string) (string, []ImageRecord, error) {
	refs, err := pipeline.CollectImageRefs(body)
	if err != nil {
		return body, nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var images []ImageRecord
	replace := make(map[string]string)
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		img := w.images.localize(ctx, w.fetcher, ent.ID, ref)
		if img.Status == "" {
			continue
		}
		images = append(images, img)
		if img.Local != "" {
			replace[ref] = root + img.Local
		}
	}

	body, err = pipeline.RewriteImageRefs(body, replace)
	if err != nil {
		return body, images, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return body, images, nil
}

// render uses the entity's template, falling back to the default
// template of its kind when a named one does not exist.
func (w *worker) render(ent *content.Entity, data *render.Data) (string, error) {
	name := ent.TemplateName()
	html, err := w.renderer.Render(name, data)
	if err == nil {
		return html, nil
	}

	fallback := string(ent.Kind) + assets.TemplateExt
	if name == fallback || !errors.Is(err, assets.ErrTemplateNotFound) {
		return "", err
	}
	w.logger.Warn("template not found, using default",
		logfields.Entity(ent.ID), logfields.Kind(name), logfields.Path(fallback))
	return w.renderer.Render(fallback, data)
}

// post builds the listing record of ent.
func (w *worker) post(ent *content.Entity, body string) *site.Post {
	excerpt := ent.String("excerpt")
	if excerpt == "" {
		excerpt = content.Excerpt(body, content.ExcerptWords)
	}
	description := ent.String("description")
	if description == "" {
		description = excerpt
	}

	p := &site.Post{
		ID:            ent.ID,
		Kind:          ent.Kind,
		Title:         ent.Title(),
		Slug:          ent.Slug,
		Permalink:     ent.Permalink,
		Date:          ent.Date(),
		Categories:    w.shared.CategoryNames(ent.Categories()),
		Tags:          w.shared.TagNames(ent.Tags()),
		Excerpt:       excerpt,
		Description:   description,
		Order:         ent.Order(),
		Meta:          ent.Meta,
		FeaturedImage: ent.FeaturedImage(),
	}
	if ent.Kind == content.KindPost || ent.Meta["author"] != nil {
		p.Author = w.shared.AuthorName(ent.Author())
	}
	if !p.Date.IsZero() {
		if text, err := dateutil.Format(p.Date, w.settings.DateFormat); err == nil {
			p.DateText = text
		} else {
			p.DateText = p.Date.Format(time.DateOnly)
		}
	}
	return p
}
