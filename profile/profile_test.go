package profile

import (
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/storypress/layout"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestDefaultProfile(t *testing.T) {
	p := Default()

	if p.Page != (layout.Size{Width: 297, Height: 210}) {
		t.Fatalf("默认页面应为横向 A4，实际 %+v", p.Page)
	}
	area := p.Area()
	if area != (layout.Box{X: 8, Y: 8, Width: 281, Height: 194}) {
		t.Fatalf("可排版区域错误: %+v", area)
	}
	if p.Layout != layout.DefaultConfig() {
		t.Fatalf("布局常量应与默认值一致:\n got %+v\nwant %+v", p.Layout, layout.DefaultConfig())
	}

	title := p.Style(StyleCoverTitle)
	if !approx(title.Size, 26*layout.PtToMm) || !approx(title.LineHeight, 8) || title.Font.Src != "builtin:bold" {
		t.Fatalf("封面标题样式错误: %+v", title)
	}
	side := p.Style(StyleCaptionSide)
	if side.Color != (layout.Color{R: 45, G: 55, B: 65}) || side.Align != "left" {
		t.Fatalf("继承后的说明文字样式错误: %+v", side)
	}
	if !approx(side.Size, 12*layout.PtToMm) {
		t.Fatalf("未覆盖的字号应继承 Body: %v", side.Size)
	}
	if p.Style(StylePageNumber).Align != "right" {
		t.Fatalf("页码应右对齐")
	}
	if p.Style("Missing").Font.Name != "Regular" {
		t.Fatalf("未知样式应回退到 Body")
	}
}

func TestDefaultColors(t *testing.T) {
	p := Default()
	want := map[string]layout.Color{
		"Ink":         {R: 30, G: 30, B: 30},
		"CaptionInk":  {R: 45, G: 55, B: 65},
		"ImageBorder": {R: 230, G: 230, B: 230},
		"EndFrame":    {R: 220, G: 220, B: 220},
	}
	for name, c := range want {
		if got := p.Colors[name]; got != c {
			t.Fatalf("颜色 %s 错误: got %+v want %+v", name, got, c)
		}
	}
	// 样式里直接写的六位颜色
	if got := p.Style(StyleEndTitle).Color; got != (layout.Color{R: 40, G: 40, B: 40}) {
		t.Fatalf("EndTitle 颜色错误: %+v", got)
	}
	if got := p.Style(StyleEndCredit).Color; got != (layout.Color{R: 130, G: 130, B: 130}) {
		t.Fatalf("EndCredit 颜色错误: %+v", got)
	}
}

func TestColorForms(t *testing.T) {
	src := `profile C v1 {
  resources {
    color Short = #abc
    color Full = #A0B0C0
    color Alpha = #10203040
  }
  page A4 { }
}`
	p, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]layout.Color{
		"Short": {R: 0xAA, G: 0xBB, B: 0xCC},
		"Full":  {R: 0xA0, G: 0xB0, B: 0xC0},
		"Alpha": {R: 0x10, G: 0x20, B: 0x30},
	}
	for name, c := range want {
		if got := p.Colors[name]; got != c {
			t.Fatalf("颜色 %s 错误: got %+v want %+v", name, got, c)
		}
	}
	if p.Margin != (layout.Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}) {
		t.Fatalf("缺省 margin 应为 20mm: %+v", p.Margin)
	}
	if p.Page != (layout.Size{Width: 210, Height: 297}) {
		t.Fatalf("未写方向时应为竖版: %+v", p.Page)
	}
}

func TestDefaultStringsAndMeta(t *testing.T) {
	p := Default()
	data := map[string]any{"title": "Moon Trip", "characterName": "Luna", "pageCount": 5, "page": 2}

	if got := p.Text(StringCoverPages, data); got != "5 Page Adventure Story" {
		t.Fatalf("cover-pages 错误: %q", got)
	}
	if got := p.Text(StringPageNumber, data); got != "2 of 5" {
		t.Fatalf("page-number 错误: %q", got)
	}
	if got := p.Text(StringEndSummary, data); !strings.HasPrefix(got, "Luna's amazing adventure") || !strings.Contains(got, "5-page story") {
		t.Fatalf("end-summary 错误: %q", got)
	}
	if p.Text("nope", data) != "" {
		t.Fatalf("未定义的键应返回空串")
	}

	meta := p.Meta(data)
	if meta.Title != "Moon Trip" || meta.Subject != "Luna's Adventure Story" || meta.Creator != "StoryTymeAI PDF Generator" {
		t.Fatalf("元信息错误: %+v", meta)
	}
	if len(meta.Keywords) != 4 || meta.Keywords[1] != "Luna" {
		t.Fatalf("关键词错误: %+v", meta.Keywords)
	}
}

const portrait = `
profile Tall v2 {
  resources {
    font Regular { src: "builtin:regular" }
    style Body { size: 11pt line-height: 5mm }
  }
  page A5 portrait margin 10mm 12mm {
    layout {
      wide-ratio: 1.2
      image-height: 0.5
      caption-gap: 1cm
    }
  }
}
`

func TestParseCustomProfile(t *testing.T) {
	p, err := Parse(strings.NewReader(portrait))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "Tall" || p.Version != "v2" {
		t.Fatalf("名称/版本错误: %s %s", p.Name, p.Version)
	}
	if p.Page != (layout.Size{Width: 148, Height: 210}) {
		t.Fatalf("A5 竖版尺寸错误: %+v", p.Page)
	}
	if p.Margin != (layout.Margin{Top: 10, Right: 12, Bottom: 10, Left: 12}) {
		t.Fatalf("双值 margin 错误: %+v", p.Margin)
	}
	if p.Layout.WideRatio != 1.2 || p.Layout.MaxImageHeight != 0.5 || p.Layout.CaptionGap != 10 {
		t.Fatalf("layout 覆盖错误: %+v", p.Layout)
	}
	// 未写出的常量保持默认
	if p.Layout.ImageColumn != 0.6 {
		t.Fatalf("未覆盖的常量应保持默认: %+v", p.Layout)
	}
	if p.Style(StyleBody).LineHeight != 5 {
		t.Fatalf("绝对行高错误: %+v", p.Style(StyleBody))
	}
	if p.Text(StringEndTitle, nil) != "" {
		t.Fatalf("未定义的字符串应为空")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"未知纸张": `profile X v1 { page B9 margin 5mm { } }`,
		"缺少页面": `profile X v1 { meta { title: "x" } }`,
		"继承循环": `profile X v1 {
  resources {
    style A extends B { size: 10pt }
    style B extends A { size: 11pt }
  }
  page A4 margin 5mm { }
}`,
		"margin 过多": `profile X v1 { page A4 margin 1mm 2mm 3mm 4mm 5mm { } }`,
		"未知参数": `profile X v1 {
  page A4 margin 5mm {
    layout { gutter: 3mm }
  }
}`,
		"字体未定义": `profile X v1 {
  resources {
    style Body { font: Ghost }
  }
  page A4 margin 5mm { }
}`,
	}
	for name, src := range cases {
		if _, err := Parse(strings.NewReader(src)); err == nil {
			t.Fatalf("%s: 期望报错", name)
		}
	}
}
