package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/storypress/fonts"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/renderer"
)

// Surface draws commands into a PDF via github.com/tdewolff/canvas.
type Surface struct {
	baseDir string

	buf    bytes.Buffer
	writer *pdf.PDF
	page   *canvas.Canvas
	ctx    *canvas.Context
	meta   layout.DocumentMeta
	closed bool

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var _ renderer.Surface = (*Surface)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas surface.
type Options struct {
	// BaseDir resolves relative font paths. Built-in fonts need no directory.
	BaseDir string
}

// New creates a canvas-based PDF surface.
func New(opts Options) *Surface {
	return &Surface{
		baseDir:      opts.BaseDir,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// Factory returns a renderer.Factory producing surfaces with opts.
func Factory(opts Options) renderer.Factory {
	return func() renderer.Surface { return New(opts) }
}

// BeginPage 开始新的一页；第一页同时创建 PDF writer。
func (s *Surface) BeginPage(width, height float64) error {
	if s.closed {
		return fmt.Errorf("文档已关闭")
	}
	if s.page != nil {
		return fmt.Errorf("上一页尚未结束")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("页面尺寸无效: %gx%g", width, height)
	}
	if s.writer == nil {
		s.writer = pdf.New(&s.buf, width, height, nil)
	} else {
		s.writer.NewPage(width, height)
	}
	s.page = canvas.New(width, height)
	s.ctx = canvas.NewContext(s.page)
	s.ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	return nil
}

// Draw 执行一条绘制指令。
func (s *Surface) Draw(cmd layout.Command) error {
	if s.ctx == nil {
		return fmt.Errorf("绘制前需要先调用 BeginPage")
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
		return fmt.Errorf("不支持的绘制指令: %s", cmd.Op)
	}
}

// EndPage 将当前页写入 PDF。
func (s *Surface) EndPage() error {
	if s.page == nil {
		return fmt.Errorf("没有进行中的页面")
	}
	s.page.RenderTo(s.writer)
	s.page, s.ctx = nil, nil
	return nil
}

// SetMeta 记录文档元信息，在 Close 时写入。
func (s *Surface) SetMeta(meta layout.DocumentMeta) { s.meta = meta }

// Close 结束文档并返回 PDF 字节。
func (s *Surface) Close() ([]byte, error) {
	if s.writer == nil {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	if s.page != nil {
		return nil, fmt.Errorf("最后一页尚未结束")
	}
	if s.closed {
		return s.buf.Bytes(), nil
	}
	s.writer.SetInfo(s.meta.Title, s.meta.Subject, strings.Join(s.meta.Keywords, ", "), s.meta.Author, s.meta.Creator)
	if err := s.writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	s.closed = true
	return s.buf.Bytes(), nil
}

// TextWidth 实现 layout.Measurer。size 与返回值均为 mm；字体系统使用 pt，在此处换算。
func (s *Surface) TextWidth(text string, font layout.FontResource, size float64) float64 {
	face, err := s.fontFace(font, toPt(size), layout.Color{})
	if err != nil {
		return layout.ApproxMeasurer{}.TextWidth(text, font, size)
	}
	return face.TextWidth(text)
}

func (s *Surface) drawRect(cmd layout.Command) {
	if cmd.Width <= 0 || cmd.Height <= 0 {
		return
	}
	if cmd.Fill != nil {
		s.ctx.SetFillColor(colorFromLayout(*cmd.Fill))
	} else {
		s.ctx.SetFillColor(color.RGBA{})
	}
	if cmd.Stroke != nil && cmd.Stroke.Width > 0 {
		s.ctx.SetStrokeColor(colorFromLayout(cmd.Stroke.Color))
		s.ctx.SetStrokeWidth(cmd.Stroke.Width)
	} else {
		s.ctx.SetStrokeColor(color.RGBA{})
		s.ctx.SetStrokeWidth(0)
	}
	path := canvas.Rectangle(cmd.Width, cmd.Height)
	if cmd.Op == layout.OpRoundedRect && cmd.Radius > 0 {
		path = canvas.RoundedRectangle(cmd.Width, cmd.Height, cmd.Radius)
	}
	s.ctx.DrawPath(cmd.X, cmd.Y, path)
}

func (s *Surface) drawImage(cmd layout.Command) error {
	if cmd.Image == nil || len(cmd.Image.Data) == 0 {
		return fmt.Errorf("图片 %s 缺少数据", imageURL(cmd.Image))
	}
	img, _, err := image.Decode(bytes.NewReader(cmd.Image.Data))
	if err != nil {
		return fmt.Errorf("解码图片 %s 失败: %w", cmd.Image.URL, err)
	}
	width := cmd.Width
	if width <= 0 {
		return fmt.Errorf("图片 %s 宽度无效", cmd.Image.URL)
	}
	dpmm := float64(img.Bounds().Dx()) / width
	if dpmm <= 0 {
		dpmm = 1
	}
	s.ctx.DrawImage(cmd.X, cmd.Y, img, canvas.DPMM(dpmm))
	return nil
}

func (s *Surface) drawText(cmd layout.Command) error {
	run := cmd.Text
	if run == nil || run.Content == "" {
		return nil
	}
	// 字号为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := s.fontFace(run.Font, toPt(run.Size), run.Color)
	if err != nil {
		return err
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(run.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = cmd.X + cmd.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = cmd.X + cmd.Width
	default:
		textAlign = canvas.Left
		anchorX = cmd.X
	}

	// 基线：行框内垂直居中字形高度（Ascent+Descent），行框不足时贴顶
	metrics := face.Metrics()
	glyph := metrics.Ascent + metrics.Descent
	baseline := cmd.Y + metrics.Ascent
	if cmd.Height > glyph {
		baseline += (cmd.Height - glyph) / 2
	}
	s.ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, run.Content, textAlign))
	return nil
}

func (s *Surface) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := s.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (s *Surface) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	s.fontMu.Lock()
	defer s.fontMu.Unlock()

	if entry, ok := s.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := s.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := s.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		s.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	s.fontFamilies[key] = entry
	return family, style, nil
}

func (s *Surface) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := s.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (s *Surface) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	return fonts.ReadFile(font.Src, s.baseDir)
}

func (s *Surface) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if s.fallbackFamily != nil {
		return s.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load("builtin:regular")
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("storypress-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	s.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

func imageURL(ref *layout.ImageRef) string {
	if ref == nil {
		return "<nil>"
	}
	return ref.URL
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
