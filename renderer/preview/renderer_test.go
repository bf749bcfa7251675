package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ByLCY/storypress/layout"
)

var regular = layout.FontResource{Name: "Regular", Src: "builtin:regular"}

func TestContactSheet(t *testing.T) {
	s := New(Options{Scale: 1, SheetWidth: 200})

	red := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			red.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, red); err != nil {
		t.Fatalf("encode: %v", err)
	}

	fill := layout.Color{R: 0, G: 0, B: 255}
	for i := 0; i < 2; i++ {
		if err := s.BeginPage(100, 50); err != nil {
			t.Fatalf("BeginPage: %v", err)
		}
		cmds := []layout.Command{
			{Op: layout.OpRoundedRect, X: 50, Y: 0, Width: 50, Height: 50, Radius: 4, Fill: &fill},
			{Op: layout.OpImage, X: 0, Y: 0, Width: 40, Height: 40,
				Image: &layout.ImageRef{URL: "red.png", Data: imgBuf.Bytes()}},
			{Op: layout.OpText, X: 0, Y: 42, Width: 50, Height: 6,
				Text: &layout.TextRun{Content: "1 of 2", Font: regular, Size: 4, Align: "right"}},
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

	page := s.Pages()[0]
	if page.Bounds().Dx() != 100 || page.Bounds().Dy() != 50 {
		t.Fatalf("页面像素尺寸错误: %v", page.Bounds())
	}
	if r, _, b, _ := page.At(20, 20).RGBA(); r>>8 != 255 || b>>8 != 0 {
		t.Fatalf("图片区域应为红色")
	}
	if _, _, b, _ := page.At(75, 25).RGBA(); b>>8 != 255 {
		t.Fatalf("矩形区域应为蓝色")
	}

	data, err := s.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	sheet, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	// 两页各缩放为 200x100，加上间距
	if got := sheet.Bounds(); got.Dx() != 200+2*sheetGap || got.Dy() != 2*100+3*sheetGap {
		t.Fatalf("拼图尺寸错误: %v", got)
	}
}

func TestTextWidthScalesWithSize(t *testing.T) {
	s := New(Options{Scale: 4})
	a := s.TextWidth("storypress", regular, 4)
	b := s.TextWidth("storypress", regular, 8)
	if a <= 0 || b < a*1.8 || b > a*2.2 {
		t.Fatalf("宽度应随字号近似线性变化: %g %g", a, b)
	}
	// 与缩放无关，单位为 mm
	c := New(Options{Scale: 1}).TextWidth("storypress", regular, 4)
	if c < a*0.8 || c > a*1.2 {
		t.Fatalf("不同缩放下的 mm 宽度应接近: %g %g", a, c)
	}
}

func TestCloseWithoutPages(t *testing.T) {
	if _, err := New(Options{}).Close(); err == nil {
		t.Fatalf("没有页面时 Close 应报错")
	}
}
