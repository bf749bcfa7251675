// Package preview provides a raster renderer.Surface built on the gg library.
// Pages are kept as images and Close returns a single PNG contact sheet.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/storypress/fonts"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/renderer"
)

const (
	defaultScale      = 2.0 // px per mm
	defaultSheetWidth = 800
	sheetGap          = 12
)

var sheetBackground = color.RGBA{R: 220, G: 220, B: 224, A: 255}

// Options configures the preview surface.
type Options struct {
	// Scale is pixels per millimetre for each page.
	Scale float64
	// SheetWidth is the width of every page on the contact sheet, in pixels.
	SheetWidth int
	BaseDir    string
}

// Surface implements renderer.Surface on gg contexts.
type Surface struct {
	scale      float64
	sheetWidth int
	baseDir    string

	dc      *gg.Context
	measure *gg.Context
	pages   []image.Image
	meta    layout.DocumentMeta

	parsed map[string]*opentype.Font
	faces  map[string]font.Face
}

var _ renderer.Surface = (*Surface)(nil)

// New creates a preview surface.
func New(opts Options) *Surface {
	if opts.Scale <= 0 {
		opts.Scale = defaultScale
	}
	if opts.SheetWidth <= 0 {
		opts.SheetWidth = defaultSheetWidth
	}
	return &Surface{
		scale:      opts.Scale,
		sheetWidth: opts.SheetWidth,
		baseDir:    opts.BaseDir,
		measure:    gg.NewContext(1, 1),
		parsed:     map[string]*opentype.Font{},
		faces:      map[string]font.Face{},
	}
}

// Factory returns a renderer.Factory producing surfaces with opts.
func Factory(opts Options) renderer.Factory {
	return func() renderer.Surface { return New(opts) }
}

// BeginPage creates a white raster of the page size.
func (s *Surface) BeginPage(width, height float64) error {
	if s.dc != nil {
		return fmt.Errorf("上一页尚未结束")
	}
	w, h := s.px(width), s.px(height)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("页面尺寸无效 %gx%g", width, height)
	}
	s.dc = gg.NewContext(w, h)
	s.dc.SetColor(color.White)
	s.dc.Clear()
	return nil
}

// Draw implements renderer.Surface.
func (s *Surface) Draw(cmd layout.Command) error {
	if s.dc == nil {
		return fmt.Errorf("不能在页面之外绘制")
	}
	switch cmd.Op {
	case layout.OpRect, layout.OpRoundedRect:
		s.drawRect(cmd)
		return nil
	case layout.OpImage:
		return s.drawImage(cmd)
	case layout.OpText:
		return s.drawText(cmd)
	default:
		return fmt.Errorf("不支持的绘制指令 %q", cmd.Op)
	}
}

// EndPage stores the finished raster.
func (s *Surface) EndPage() error {
	if s.dc == nil {
		return fmt.Errorf("当前没有进行中的页面")
	}
	s.pages = append(s.pages, s.dc.Image())
	s.dc = nil
	return nil
}

// SetMeta implements renderer.Surface. PNG output carries no metadata; it is kept for Meta.
func (s *Surface) SetMeta(meta layout.DocumentMeta) { s.meta = meta }

// Meta returns the metadata passed to SetMeta.
func (s *Surface) Meta() layout.DocumentMeta { return s.meta }

// Pages returns the rendered page rasters.
func (s *Surface) Pages() []image.Image { return s.pages }

// Close stacks all pages vertically, each scaled to SheetWidth, and encodes a PNG.
func (s *Surface) Close() ([]byte, error) {
	if s.dc != nil {
		return nil, fmt.Errorf("最后一页尚未结束")
	}
	if len(s.pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	type placed struct {
		img  image.Image
		rect image.Rectangle
	}
	var (
		items  []placed
		height = sheetGap
	)
	for _, page := range s.pages {
		b := page.Bounds()
		h := int(math.Round(float64(b.Dy()) * float64(s.sheetWidth) / float64(b.Dx())))
		rect := image.Rect(sheetGap, height, sheetGap+s.sheetWidth, height+h)
		items = append(items, placed{img: page, rect: rect})
		height += h + sheetGap
	}

	sheet := gg.NewContext(s.sheetWidth+2*sheetGap, height)
	sheet.SetColor(sheetBackground)
	sheet.Clear()
	dst, ok := sheet.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("预览画布类型异常 %T", sheet.Image())
	}
	for _, it := range items {
		draw.CatmullRom.Scale(dst, it.rect, it.img, it.img.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// TextWidth implements layout.Measurer.
func (s *Surface) TextWidth(text string, res layout.FontResource, size float64) float64 {
	face, err := s.face(res, size)
	if err != nil {
		return layout.ApproxMeasurer{}.TextWidth(text, res, size)
	}
	s.measure.SetFontFace(face)
	w, _ := s.measure.MeasureString(text)
	return w / s.scale
}

func (s *Surface) drawRect(cmd layout.Command) {
	if cmd.Width <= 0 || cmd.Height <= 0 {
		return
	}
	x, y, w, h := s.mm(cmd.X), s.mm(cmd.Y), s.mm(cmd.Width), s.mm(cmd.Height)
	if cmd.Op == layout.OpRoundedRect && cmd.Radius > 0 {
		s.dc.DrawRoundedRectangle(x, y, w, h, s.mm(cmd.Radius))
	} else {
		s.dc.DrawRectangle(x, y, w, h)
	}
	if cmd.Fill != nil {
		s.dc.SetColor(toColor(*cmd.Fill))
		s.dc.FillPreserve()
	}
	if cmd.Stroke != nil && cmd.Stroke.Width > 0 {
		s.dc.SetColor(toColor(cmd.Stroke.Color))
		s.dc.SetLineWidth(math.Max(s.mm(cmd.Stroke.Width), 1))
		s.dc.StrokePreserve()
	}
	s.dc.ClearPath()
}

func (s *Surface) drawImage(cmd layout.Command) error {
	if cmd.Image == nil || len(cmd.Image.Data) == 0 {
		return fmt.Errorf("图片没有数据")
	}
	src, _, err := image.Decode(bytes.NewReader(cmd.Image.Data))
	if err != nil {
		return fmt.Errorf("解码图片 %s 失败: %w", cmd.Image.URL, err)
	}
	w, h := s.px(cmd.Width), s.px(cmd.Height)
	if w <= 0 || h <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	s.dc.DrawImage(dst, s.px(cmd.X), s.px(cmd.Y))
	return nil
}

func (s *Surface) drawText(cmd layout.Command) error {
	run := cmd.Text
	if run == nil || run.Content == "" {
		return nil
	}
	face, err := s.face(run.Font, run.Size)
	if err != nil {
		return err
	}
	s.dc.SetFontFace(face)
	s.dc.SetColor(toColor(run.Color))

	ax, x := 0.0, cmd.X
	switch strings.ToLower(run.Align) {
	case "center":
		ax, x = 0.5, cmd.X+cmd.Width/2
	case "right", "end":
		ax, x = 1, cmd.X+cmd.Width
	}
	y := cmd.Y + cmd.Height/2
	if cmd.Height <= 0 {
		y = cmd.Y + run.Size/2
	}
	s.dc.DrawStringAnchored(run.Content, s.mm(x), s.mm(y), ax, 0.5)
	return nil
}

// face returns a cached face for the font at size (mm). At 72 DPI one point is one pixel.
func (s *Surface) face(res layout.FontResource, size float64) (font.Face, error) {
	px := size * s.scale
	key := fmt.Sprintf("%s|%s|%.3f", res.Name, res.Src, px)
	if f, ok := s.faces[key]; ok {
		return f, nil
	}
	parsed, err := s.parse(res)
	if err != nil {
		return nil, err
	}
	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: px, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("字体 %s: %w", res.Name, err)
	}
	s.faces[key] = f
	return f, nil
}

func (s *Surface) parse(res layout.FontResource) (*opentype.Font, error) {
	key := res.Name + "|" + res.Src
	if f, ok := s.parsed[key]; ok {
		return f, nil
	}
	data, err := fonts.ReadFile(res.Src, s.baseDir)
	if err != nil || res.Src == "" {
		data = fonts.ForStyle(res.Style)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", res.Name, err)
	}
	s.parsed[key] = f
	return f, nil
}

func (s *Surface) mm(v float64) float64 { return v * s.scale }

func (s *Surface) px(v float64) int { return int(math.Round(v * s.scale)) }

func toColor(c layout.Color) color.Color {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}
