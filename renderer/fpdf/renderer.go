// Package fpdfrenderer draws layout commands with github.com/jung-kurt/gofpdf.
package fpdfrenderer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/jung-kurt/gofpdf"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/storypress/fonts"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/renderer"
)

// Options configures the gofpdf surface.
type Options struct {
	// BaseDir resolves relative font paths.
	BaseDir string
}

// Surface is a renderer.Surface backed by gofpdf. Fonts are embedded as UTF-8 TrueType.
type Surface struct {
	baseDir string
	pdf     *gofpdf.Fpdf
	// font families registered with gofpdf, keyed by resource
	families map[string]string
	images   int
	pages    int
	inPage   bool
	meta     layout.DocumentMeta
	out      []byte
}

var _ renderer.Surface = (*Surface)(nil)

// New creates an empty document in millimetres with no automatic page breaks.
func New(opts Options) *Surface {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &Surface{
		baseDir:  opts.BaseDir,
		pdf:      pdf,
		families: map[string]string{},
	}
}

// Factory returns a renderer.Factory producing surfaces with opts.
func Factory(opts Options) renderer.Factory {
	return func() renderer.Surface { return New(opts) }
}

// BeginPage implements renderer.Surface.
func (s *Surface) BeginPage(width, height float64) error {
	if s.out != nil {
		return fmt.Errorf("文档已关闭")
	}
	if s.inPage {
		return fmt.Errorf("上一页尚未结束")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("页面尺寸无效 %gx%g", width, height)
	}
	// "P" keeps the given width/height as-is, landscape sizes included.
	s.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	if err := s.check(); err != nil {
		return fmt.Errorf("新建页面失败: %w", err)
	}
	s.pages++
	s.inPage = true
	return nil
}

// Draw implements renderer.Surface.
func (s *Surface) Draw(cmd layout.Command) error {
	if !s.inPage {
		return fmt.Errorf("不能在页面之外绘制")
	}
	switch cmd.Op {
	case layout.OpRect, layout.OpRoundedRect:
		s.drawRect(cmd)
	case layout.OpImage:
		if err := s.drawImage(cmd); err != nil {
			return err
		}
	case layout.OpText:
		if err := s.drawText(cmd); err != nil {
			return err
		}
	default:
		return fmt.Errorf("不支持的绘制指令 %q", cmd.Op)
	}
	if err := s.check(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Op, err)
	}
	return nil
}

// EndPage implements renderer.Surface.
func (s *Surface) EndPage() error {
	if !s.inPage {
		return fmt.Errorf("当前没有进行中的页面")
	}
	s.inPage = false
	return nil
}

// SetMeta implements renderer.Surface.
func (s *Surface) SetMeta(meta layout.DocumentMeta) { s.meta = meta }

// Close writes the document and returns the PDF bytes.
func (s *Surface) Close() ([]byte, error) {
	if s.out != nil {
		return s.out, nil
	}
	if s.pages == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	if s.inPage {
		return nil, fmt.Errorf("最后一页尚未结束")
	}
	s.pdf.SetTitle(s.meta.Title, true)
	s.pdf.SetAuthor(s.meta.Author, true)
	s.pdf.SetSubject(s.meta.Subject, true)
	s.pdf.SetKeywords(strings.Join(s.meta.Keywords, ", "), true)
	s.pdf.SetCreator(s.meta.Creator, true)

	var buf bytes.Buffer
	if err := s.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	s.out = buf.Bytes()
	return s.out, nil
}

// TextWidth implements layout.Measurer using the embedded font metrics.
func (s *Surface) TextWidth(text string, font layout.FontResource, size float64) float64 {
	if err := s.useFont(font, size); err != nil {
		return layout.ApproxMeasurer{}.TextWidth(text, font, size)
	}
	return s.pdf.GetStringWidth(text)
}

func (s *Surface) drawRect(cmd layout.Command) {
	if cmd.Width <= 0 || cmd.Height <= 0 {
		return
	}
	style := ""
	if cmd.Fill != nil {
		s.pdf.SetFillColor(cmd.Fill.R, cmd.Fill.G, cmd.Fill.B)
		style += "F"
	}
	if cmd.Stroke != nil && cmd.Stroke.Width > 0 {
		s.pdf.SetDrawColor(cmd.Stroke.Color.R, cmd.Stroke.Color.G, cmd.Stroke.Color.B)
		s.pdf.SetLineWidth(cmd.Stroke.Width)
		style += "D"
	}
	if style == "" {
		return
	}
	if cmd.Op == layout.OpRoundedRect && cmd.Radius > 0 {
		s.pdf.RoundedRect(cmd.X, cmd.Y, cmd.Width, cmd.Height, cmd.Radius, "1234", style)
		return
	}
	s.pdf.Rect(cmd.X, cmd.Y, cmd.Width, cmd.Height, style)
}

func (s *Surface) drawImage(cmd layout.Command) error {
	if cmd.Image == nil || len(cmd.Image.Data) == 0 {
		return fmt.Errorf("图片没有数据")
	}
	data, kind, err := pdfImage(cmd.Image)
	if err != nil {
		return fmt.Errorf("图片 %s: %w", cmd.Image.URL, err)
	}
	s.images++
	name := fmt.Sprintf("img%d", s.images)
	opts := gofpdf.ImageOptions{ImageType: kind, ReadDpi: false}
	s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := s.check(); err != nil {
		return fmt.Errorf("注册图片 %s 失败: %w", cmd.Image.URL, err)
	}
	s.pdf.ImageOptions(name, cmd.X, cmd.Y, cmd.Width, cmd.Height, false, opts, 0, "")
	return nil
}

// pdfImage passes JPEG through and re-encodes everything else as 8-bit PNG,
// since gofpdf reads neither WebP nor 16-bit or interlaced PNG.
func pdfImage(ref *layout.ImageRef) ([]byte, string, error) {
	if ref.Format == "jpeg" {
		return ref.Data, "JPG", nil
	}
	src, _, err := image.Decode(bytes.NewReader(ref.Data))
	if err != nil {
		return nil, "", fmt.Errorf("解码失败: %w", err)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, "", fmt.Errorf("重新编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), "PNG", nil
}

func (s *Surface) drawText(cmd layout.Command) error {
	run := cmd.Text
	if run == nil || run.Content == "" {
		return nil
	}
	if err := s.useFont(run.Font, run.Size); err != nil {
		return err
	}
	s.pdf.SetTextColor(run.Color.R, run.Color.G, run.Color.B)

	width := s.pdf.GetStringWidth(run.Content)
	x := cmd.X
	switch strings.ToLower(run.Align) {
	case "center":
		x += (cmd.Width - width) / 2
	case "right", "end":
		x += cmd.Width - width
	}
	// Text() 以基线定位；按大写字母高度约 0.7em 在行框内居中
	baseline := cmd.Y + cmd.Height/2 + run.Size*0.35
	if cmd.Height <= 0 {
		baseline = cmd.Y + run.Size*0.8
	}
	s.pdf.Text(x, baseline, run.Content)
	return nil
}

// useFont registers the font on first use and selects it at size (mm).
func (s *Surface) useFont(font layout.FontResource, size float64) error {
	key := font.Name + "|" + font.Src
	family, ok := s.families[key]
	if !ok {
		data, err := fonts.ReadFile(font.Src, s.baseDir)
		if err != nil || font.Src == "" {
			data = fonts.ForStyle(font.Style)
		}
		family = fmt.Sprintf("f%d", len(s.families)+1)
		s.pdf.AddUTF8FontFromBytes(family, "", data)
		if err := s.check(); err != nil {
			return fmt.Errorf("加载字体 %s 失败: %w", font.Name, err)
		}
		s.families[key] = family
	}
	s.pdf.SetFont(family, "", 0)
	s.pdf.SetFontUnitSize(size)
	return s.check()
}

// check returns and clears gofpdf's sticky error.
func (s *Surface) check() error {
	if !s.pdf.Err() {
		return nil
	}
	err := s.pdf.Error()
	s.pdf.ClearError()
	return err
}
