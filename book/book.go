// Package book 是对外的渲染入口：归一化故事数据，装配页面并输出 PDF（或预览图）。
package book

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ByLCY/storypress/assembler"
	"github.com/ByLCY/storypress/imageloader"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/logger"
	"github.com/ByLCY/storypress/profile"
	"github.com/ByLCY/storypress/renderer"
	canvasrenderer "github.com/ByLCY/storypress/renderer/canvas"
	"github.com/ByLCY/storypress/story"
)

// Options 配置一次渲染，零值字段使用默认实现。
type Options struct {
	Loader     imageloader.Loader
	Profile    *profile.Profile
	NewSurface renderer.Factory
	Logger     logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Loader == nil {
		o.Loader = imageloader.New(imageloader.Options{})
	}
	if o.Profile == nil {
		o.Profile = profile.Default()
	}
	if o.NewSurface == nil {
		o.NewSurface = canvasrenderer.Factory(canvasrenderer.Options{})
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

// Document 是渲染完成的文档。
type Document struct {
	data   []byte
	story  story.Document
	result *layout.Result
	report *assembler.Report
}

// Render 渲染已解码的故事数据。
//
// 图片缺失、封面失败或没有内容页都不会返回错误，而是记录在 Report 中；
// 只有 ctx 取消与 *assembler.RenderFatalError 会中止渲染。
func Render(ctx context.Context, raw map[string]any, opts Options) (*Document, error) {
	return render(ctx, story.Normalize(raw), opts)
}

// RenderJSON 解析 JSON 后渲染，JSON 不合法时返回错误。
func RenderJSON(ctx context.Context, data []byte, opts Options) (*Document, error) {
	doc, err := story.NormalizeJSON(data)
	if err != nil {
		return nil, err
	}
	return render(ctx, doc, opts)
}

func render(ctx context.Context, doc story.Document, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	surface := opts.NewSurface()
	asm := assembler.New(assembler.Options{Profile: opts.Profile, Loader: opts.Loader, Logger: opts.Logger})

	result, report, err := asm.Assemble(ctx, doc, surface)
	if err != nil {
		return nil, err
	}
	data, err := surface.Close()
	if err != nil {
		return nil, &assembler.RenderFatalError{Cause: err}
	}
	return &Document{data: data, story: doc, result: result, report: report}, nil
}

// Bytes 返回输出文件内容。
func (d *Document) Bytes() []byte { return d.data }

// FileName 返回按故事数据推导的文件名。
func (d *Document) FileName() string { return story.FileName(d.story) }

// Report 返回渲染报告。
func (d *Document) Report() *assembler.Report { return d.report }

// Pages 返回各页的排版结果（不含图片字节）。
func (d *Document) Pages() []layout.Page { return d.result.Pages }

// Result 返回完整排版结果，可交给 layout.WriteDebugJSON。
func (d *Document) Result() *layout.Result { return d.result }

// Story 返回归一化后的故事。
func (d *Document) Story() story.Document { return d.story }

// WriteTo 实现 io.WriterTo。
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(d.data).WriteTo(w)
}

// Save 写入文件；path 为空时使用 FileName()，父目录不存在时自动创建。
func (d *Document) Save(path string) error {
	if path == "" {
		path = d.FileName()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, d.data, 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}
