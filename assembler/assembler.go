// Package assembler 按 封面 → 内容页 → 结束页 的顺序把故事排成绘制指令，并逐页交给渲染面。
package assembler

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ByLCY/storypress/imageloader"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/logger"
	"github.com/ByLCY/storypress/profile"
	"github.com/ByLCY/storypress/renderer"
	"github.com/ByLCY/storypress/story"
)

// 文字溢出时距框顶的最小留白（mm）。
const minTextTop = 2

type state int

const (
	stateCover state = iota
	stateContent
	stateEnd
	stateDone
)

// Options 配置装配器。Profile 与 Logger 为空时使用默认值，Loader 必填。
type Options struct {
	Profile *profile.Profile
	Loader  imageloader.Loader
	Logger  logger.Logger
}

// Assembler 是无状态的装配器，可在多次渲染间复用。
type Assembler struct {
	profile *profile.Profile
	planner *layout.Planner
	loader  imageloader.Loader
	log     logger.Logger
}

// New 创建装配器。
func New(opts Options) *Assembler {
	p := opts.Profile
	if p == nil {
		p = profile.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Assembler{
		profile: p,
		planner: layout.NewPlanner(p.Layout),
		loader:  opts.Loader,
		log:     log.WithComponent("assembler"),
	}
}

// run 保存一次渲染的可变状态。
type run struct {
	*Assembler
	ctx     context.Context
	doc     story.Document
	surface renderer.Surface
	flow    *layout.TextFlow
	area    layout.Box
	result  *layout.Result
	report  *Report
	vars    map[string]any
}

// Assemble 依次生成封面、内容页与结束页并绘制到 surface，最后写入元信息。
//
// 图片加载失败只会记录到 Report；渲染面出错时返回 *RenderFatalError；
// ctx 取消时原样返回 ctx.Err()。调用方负责 surface.Close。
func (a *Assembler) Assemble(ctx context.Context, doc story.Document, surface renderer.Surface) (*layout.Result, *Report, error) {
	r := &run{
		Assembler: a,
		ctx:       ctx,
		doc:       doc,
		surface:   surface,
		flow:      layout.NewTextFlow(surface, minTextTop),
		area:      a.profile.Area(),
		result:    &layout.Result{},
		report: &Report{
			RenderID:     uuid.NewString(),
			Shape:        doc.Shape,
			ContentPages: len(doc.Pages),
			Malformed:    story.Validate(doc),
		},
		vars: map[string]any{
			"title":         doc.Title,
			"characterName": doc.CharacterName,
			"pageCount":     len(doc.Pages),
			"storyId":       doc.StoryID,
			"style":         doc.Style,
		},
	}
	a.log.Debug("Render %s started: shape=%s, %d content pages", r.report.RenderID, doc.Shape, len(doc.Pages))
	if r.report.Malformed != nil {
		a.log.Warn("No content pages found: %v", r.report.Malformed)
	}

	for st := stateCover; st != stateDone; {
		var err error
		switch st {
		case stateCover:
			err = r.cover()
			st = stateContent
		case stateContent:
			err = r.content()
			st = stateEnd
		case stateEnd:
			err = r.end()
			st = stateDone
		}
		if err != nil {
			return nil, r.report, err
		}
	}

	r.result.Meta = a.profile.Meta(r.vars)
	surface.SetMeta(r.result.Meta)
	r.report.TotalPages = len(r.result.Pages)
	a.log.Debug("Render %s finished: %d pages, %d fallbacks", r.report.RenderID, r.report.TotalPages, len(r.report.Fallbacks))
	return r.result, r.report, nil
}

func (r *run) cover() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if r.doc.CoverURL == "" {
		return nil
	}
	img, err := r.loader.Load(r.ctx, r.doc.CoverURL)
	if err != nil {
		if cerr := r.cancelled(err); cerr != nil {
			return cerr
		}
		r.report.CoverErr = err
		r.log.Warn("Cover image unavailable, skipping cover: %v", err)
		return nil
	}
	defer img.Release()

	pl := r.planner.PlanCover(pixelSize(img), r.area)
	if err := r.emit(pl.Variant, r.coverCommands(pl, img)); err != nil {
		return err
	}
	r.report.CoverEmitted = true
	return nil
}

func (r *run) content() error {
	for i, page := range r.doc.Pages {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		number := i + 1

		var dims *layout.Size
		img, err := r.loader.Load(r.ctx, page.ImageURL)
		if err != nil {
			if cerr := r.cancelled(err); cerr != nil {
				return cerr
			}
			r.report.Fallbacks = append(r.report.Fallbacks, Fallback{Page: number, URL: page.ImageURL, Err: err})
			r.log.Warn("Page %d image unavailable, using text-only layout: %v", number, err)
			img = nil
		} else {
			size := pixelSize(img)
			dims = &size
		}

		pl := r.planner.PlanContent(dims, r.area)
		r.log.Debug("Page %d planned as %s", number, pl.Variant)

		cmds, overflowed := r.contentCommands(pl, img, page, number)
		if overflowed {
			r.report.Overflows = append(r.report.Overflows, number)
			r.log.Warn("Page %d text overflows its box", number)
		}
		err = r.emit(pl.Variant, cmds)
		img.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) end() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	pl := r.planner.PlanEnd(r.area)
	return r.emit(pl.Variant, r.endCommands(pl))
}

// emit 把一页交给渲染面，并把不含图片字节的副本记入结果。
func (r *run) emit(variant layout.Variant, cmds []layout.Command) error {
	index := len(r.result.Pages) + 1
	page := layout.Page{
		Index:    index,
		Width:    r.profile.Page.Width,
		Height:   r.profile.Page.Height,
		Variant:  variant,
		Commands: cmds,
	}
	if err := r.surface.BeginPage(page.Width, page.Height); err != nil {
		return &RenderFatalError{Page: index, Cause: err}
	}
	for _, cmd := range cmds {
		if err := r.surface.Draw(cmd); err != nil {
			return &RenderFatalError{Page: index, Cause: err}
		}
	}
	if err := r.surface.EndPage(); err != nil {
		return &RenderFatalError{Page: index, Cause: err}
	}
	for i := range page.Commands {
		if ref := page.Commands[i].Image; ref != nil {
			ref.Data = nil
		}
	}
	r.result.Pages = append(r.result.Pages, page)
	return nil
}

// cancelled 在加载失败由 ctx 取消引起时返回 ctx.Err()。
func (r *run) cancelled(err error) error {
	if ctxErr := r.ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctxErr
	}
	return nil
}

func pixelSize(img *imageloader.LoadedImage) layout.Size {
	return layout.Size{Width: float64(img.PixelWidth), Height: float64(img.PixelHeight)}
}
