package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ByLCY/storypress/layout"
)

var bodyFont = layout.FontResource{Name: "Regular", Src: "builtin:regular"}

func TestTextWidthUsesRealFont(t *testing.T) {
	s := New(Options{})
	size := 12 * layout.PtToMm

	narrow := s.TextWidth("iiii", bodyFont, size)
	wide := s.TextWidth("WWWW", bodyFont, size)
	if narrow <= 0 || wide <= narrow {
		t.Fatalf("比例字体宽度异常: iiii=%g WWWW=%g", narrow, wide)
	}
	if double := s.TextWidth("WWWW", bodyFont, size*2); double < wide*1.9 || double > wide*2.1 {
		t.Fatalf("宽度应随字号线性变化: %g vs %g", double, wide)
	}
}

// 第一行宽度与容器宽度恰好相等时，折行结果不应出现空行或把下一个词挤进来。
func TestWrapAtExactWidth(t *testing.T) {
	s := New(Options{})
	size := 12 * layout.PtToMm
	flow := layout.NewTextFlow(s, 0)

	first := "SAMPLE-A"
	limit := s.TextWidth(first, bodyFont, size)
	lines := flow.Wrap(first+"\n"+"SAMPLE-B", limit, bodyFont, size)
	if len(lines) != 2 || lines[0] != first || lines[1] != "SAMPLE-B" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

// TestWrapWidthLimit 验证多词行的宽度不超过限制（mm）。
func TestWrapWidthLimit(t *testing.T) {
	s := New(Options{})
	size := 12 * layout.PtToMm
	flow := layout.NewTextFlow(s, 0)

	limit := 30.0
	lines := flow.Wrap("the quick brown fox jumps over the lazy dog again and again", limit, bodyFont, size)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for i, ln := range lines {
		if w := s.TextWidth(ln, bodyFont, size); w-limit > 1e-6 {
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, w, limit)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	s := New(Options{})
	fill := layout.Color{R: 251, G: 252, B: 254}
	cmds := []layout.Command{
		{Op: layout.OpRoundedRect, X: 10, Y: 10, Width: 100, Height: 50, Radius: 8, Fill: &fill,
			Stroke: &layout.Stroke{Color: layout.Color{R: 210, G: 220, B: 235}, Width: 0.5}},
		{Op: layout.OpImage, X: 10, Y: 70, Width: 80, Height: 40,
			Image: &layout.ImageRef{URL: "mem.png", PixelWidth: 40, PixelHeight: 20, Data: buf.Bytes()}},
		{Op: layout.OpText, X: 10, Y: 120, Width: 100, Height: 6,
			Text: &layout.TextRun{Content: "Hello", Font: bodyFont, Size: 12 * layout.PtToMm, Align: "center"}},
	}

	for page := 0; page < 2; page++ {
		if err := s.BeginPage(297, 210); err != nil {
			t.Fatalf("BeginPage: %v", err)
		}
		for _, cmd := range cmds {
			if err := s.Draw(cmd); err != nil {
				t.Fatalf("Draw %s: %v", cmd.Op, err)
			}
		}
		if err := s.EndPage(); err != nil {
			t.Fatalf("EndPage: %v", err)
		}
	}
	s.SetMeta(layout.DocumentMeta{Title: "Test", Author: "storypress", Keywords: []string{"a", "b"}})
	data, err := s.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF: %q", data[:8])
	}
}

func TestSurfaceOrderErrors(t *testing.T) {
	s := New(Options{})
	if _, err := s.Close(); err == nil {
		t.Fatalf("没有页面时 Close 应报错")
	}
	if err := s.Draw(layout.Command{Op: layout.OpRect}); err == nil {
		t.Fatalf("BeginPage 之前 Draw 应报错")
	}
	if err := s.BeginPage(100, 100); err != nil {
		t.Fatalf("BeginPage: %v", err)
	}
	if err := s.Draw(layout.Command{Op: layout.OpImage, Width: 10, Height: 10, Image: &layout.ImageRef{URL: "x"}}); err == nil {
		t.Fatalf("缺少数据的图片应报错")
	}
	if err := s.Draw(layout.Command{Op: "circle"}); err == nil {
		t.Fatalf("未知指令应报错")
	}
}
