// Package profile 将 papyrus 布局描述文件解析为页面尺寸、版式常量、文字样式与字符串模板。
package profile

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ByLCY/storypress/binding"
	"github.com/ByLCY/storypress/dsl"
	"github.com/ByLCY/storypress/layout"
)

//go:embed default.papyrus
var defaultSource string

// 样式名称，装配器按这些名称取样式。
const (
	StyleBody          = "Body"
	StyleCoverTitle    = "CoverTitle"
	StyleCoverSubtitle = "CoverSubtitle"
	StyleCoverDetail   = "CoverDetail"
	StyleCoverCredit   = "CoverCredit"
	StyleCaptionWide   = "CaptionWide"
	StyleCaptionSide   = "CaptionSide"
	StylePageNumber    = "PageNumber"
	StyleEndTitle      = "EndTitle"
	StyleEndSummary    = "EndSummary"
	StyleEndCredit     = "EndCredit"
)

// 字符串模板键。
const (
	StringCoverFeaturing = "cover-featuring"
	StringCoverPages     = "cover-pages"
	StringCoverCredit    = "cover-credit"
	StringPageNumber     = "page-number"
	StringEndTitle       = "end-title"
	StringEndSummary     = "end-summary"
	StringEndCredit      = "end-credit"
)

// Profile 是解析后的布局描述。
type Profile struct {
	Name    string
	Version string
	Page    layout.Size
	Margin  layout.Margin
	Layout  layout.Config
	Fonts   map[string]layout.FontResource
	Colors  map[string]layout.Color
	Styles  map[string]layout.TextStyle
	Strings map[string]string
	meta    metaTemplate
}

type metaTemplate struct {
	title, author, subject, creator string
	keywords                        []string
}

// Default 返回内置的横向 A4 布局。
func Default() *Profile {
	p, err := Parse(strings.NewReader(defaultSource))
	if err != nil {
		panic(fmt.Sprintf("内置布局解析失败: %v", err))
	}
	return p
}

// Load 从文件读取布局描述。
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开布局文件失败: %w", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse 解析布局描述。
func Parse(r io.Reader) (*Profile, error) {
	doc, err := dsl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析布局失败: %w", err)
	}
	return build(doc)
}

func build(doc *dsl.Document) (*Profile, error) {
	p := &Profile{
		Name:    doc.Name,
		Version: doc.Version,
		Layout:  layout.DefaultConfig(),
		Fonts:   map[string]layout.FontResource{},
		Colors:  map[string]layout.Color{},
		Styles:  map[string]layout.TextStyle{},
		Strings: map[string]string{},
	}
	if err := p.collectResources(doc); err != nil {
		return nil, err
	}
	p.collectMeta(doc)

	page := doc.Page()
	if page == nil {
		return nil, fmt.Errorf("布局缺少 page 段")
	}
	w, h, err := resolvePageSize(page)
	if err != nil {
		return nil, err
	}
	p.Page = layout.Size{Width: w, Height: h}
	if p.Margin, err = resolveMargin(page.Margin); err != nil {
		return nil, err
	}

	if err := applyLayout(&p.Layout, page.Layout()); err != nil {
		return nil, err
	}
	for _, prop := range page.Strings() {
		p.Strings[prop.Key] = prop.Value.Text()
	}
	if p.Area().Empty() {
		return nil, fmt.Errorf("页边距过大，可排版区域为空")
	}
	return p, nil
}

// Area 返回可排版区域。
func (p *Profile) Area() layout.Box {
	return layout.PrintableArea(p.Page, p.Margin)
}

// Style 按名称取样式，未定义时回退到 Body。
func (p *Profile) Style(name string) layout.TextStyle {
	if s, ok := p.Styles[name]; ok {
		return s
	}
	if s, ok := p.Styles[StyleBody]; ok {
		return s
	}
	size := 12 * layout.PtToMm
	return layout.TextStyle{
		Font:       layout.FontResource{Name: "Regular", Src: "builtin:regular", Family: "Regular"},
		Size:       size,
		LineHeight: size * 1.4,
		Color:      layout.Gray(30),
	}
}

// Text 用 data 填充字符串模板；未定义的键返回空串。
func (p *Profile) Text(key string, data map[string]any) string {
	tmpl, ok := p.Strings[key]
	if !ok {
		return ""
	}
	return binding.Interpolate(tmpl, data)
}

// Meta 用 data 填充文档元信息模板。
func (p *Profile) Meta(data map[string]any) layout.DocumentMeta {
	meta := layout.DocumentMeta{
		Title:   binding.Interpolate(p.meta.title, data),
		Author:  binding.Interpolate(p.meta.author, data),
		Subject: binding.Interpolate(p.meta.subject, data),
		Creator: binding.Interpolate(p.meta.creator, data),
	}
	for _, kw := range p.meta.keywords {
		meta.Keywords = append(meta.Keywords, binding.Interpolate(kw, data))
	}
	return meta
}

func (p *Profile) collectResources(doc *dsl.Document) error {
	rawStyles := map[string]rawStyle{}
	for _, res := range doc.Resources() {
		switch {
		case res.Font != nil:
			font := parseFontResource(res.Font)
			p.Fonts[font.Name] = font
		case res.Color != nil:
			c, err := parseColor(res.Color.Value)
			if err != nil {
				return fmt.Errorf("color %s: %w", res.Color.Name, err)
			}
			p.Colors[res.Color.Name] = c
		case res.Style != nil:
			style := parseStyleResource(res.Style)
			rawStyles[style.Name] = style
		}
	}

	if len(p.Fonts) == 0 {
		p.Fonts["Regular"] = layout.FontResource{Name: "Regular", Src: "builtin:regular", Family: "Regular"}
	}

	resolved, err := resolveStyles(rawStyles)
	if err != nil {
		return err
	}
	for name, raw := range resolved {
		style, err := p.textStyle(raw.Props)
		if err != nil {
			return fmt.Errorf("style %s: %w", name, err)
		}
		p.Styles[name] = style
	}
	return nil
}

func (p *Profile) collectMeta(doc *dsl.Document) {
	p.meta.creator = "storypress"
	for key, val := range doc.Meta().Map() {
		switch strings.ToLower(key) {
		case "title":
			p.meta.title = val.Text()
		case "author":
			p.meta.author = val.Text()
		case "subject":
			p.meta.subject = val.Text()
		case "creator":
			p.meta.creator = val.Text()
		case "keywords":
			p.meta.keywords = val.Strings()
		}
	}
}

// textStyle 将样式属性转换为最终样式；字号默认单位为 pt。
func (p *Profile) textStyle(props map[string]string) (layout.TextStyle, error) {
	var style layout.TextStyle

	fontName := props["font"]
	if fontName == "" {
		fontName = "Regular"
	}
	font, ok := p.Fonts[fontName]
	if !ok {
		return style, fmt.Errorf("字体 %s 未定义", fontName)
	}
	style.Font = font

	style.Size = 12 * layout.PtToMm
	if v := props["size"]; v != "" {
		l, ok := layout.ParseRawLengthStr(v)
		if !ok || l.Value <= 0 {
			return style, fmt.Errorf("字号 %s 无法解析", v)
		}
		if l.Unit == layout.UnitNone {
			l.Unit = layout.UnitPT
		}
		style.Size = l.ToMM()
	}

	style.LineHeight = style.Size * 1.4
	if v := props["line-height"]; v != "" {
		spec, ok := layout.ParseLineHeight(v)
		if !ok {
			return style, fmt.Errorf("行高 %s 无法解析", v)
		}
		style.LineHeight = spec.Resolve(style.Size)
	}

	style.Color = layout.Gray(30)
	if v := props["color"]; v != "" {
		c, err := p.resolveColor(v)
		if err != nil {
			return style, err
		}
		style.Color = c
	}

	switch align := strings.ToLower(props["align"]); align {
	case "", "left", "start":
		style.Align = "left"
	case "center", "middle":
		style.Align = "center"
	case "right", "end":
		style.Align = "right"
	default:
		return style, fmt.Errorf("对齐方式 %s 不支持", align)
	}
	return style, nil
}

func (p *Profile) resolveColor(value string) (layout.Color, error) {
	if c, ok := p.Colors[value]; ok {
		return c, nil
	}
	if strings.HasPrefix(value, "#") {
		return parseColor(value)
	}
	return layout.Color{}, fmt.Errorf("颜色 %s 未定义", value)
}

// applyLayout 读取 layout 块；比例可写成百分比或小数，长度默认单位为 mm。
func applyLayout(cfg *layout.Config, props []*dsl.Property) error {
	fractions := map[string]*float64{
		"image-height":       &cfg.MaxImageHeight,
		"image-column":       &cfg.ImageColumn,
		"text-column":        &cfg.TextColumn,
		"cover-title-column": &cfg.CoverTitleColumn,
	}
	lengths := map[string]*float64{
		"caption-gap":  &cfg.CaptionGap,
		"image-inset":  &cfg.ImageInset,
		"cover-gap":    &cfg.CoverGap,
		"cover-footer": &cfg.CoverFooter,
		"end-inset":    &cfg.EndInset,
	}
	for _, prop := range props {
		key, raw := prop.Key, prop.Value.Text()
		l, ok := layout.ParseRawLengthStr(raw)
		if !ok {
			return fmt.Errorf("layout.%s: 无法解析 %q", key, raw)
		}
		switch {
		case key == "wide-ratio":
			cfg.WideRatio = l.Value
		case fractions[key] != nil:
			*fractions[key] = l.Fraction()
		case lengths[key] != nil:
			*lengths[key] = l.ToMM()
		default:
			return fmt.Errorf("layout.%s: 未知参数", key)
		}
	}
	return nil
}

type rawStyle struct {
	Name    string
	Extends string
	Props   map[string]string
}

func parseFontResource(decl *dsl.FontDecl) layout.FontResource {
	font := layout.FontResource{Name: decl.Name, Family: decl.Name}
	for key, val := range decl.Props.Map() {
		switch key {
		case "src":
			font.Src = val.Text()
		case "style":
			font.Style = val.Text()
		}
	}
	if font.Src == "" {
		font.Src = "builtin:regular"
	}
	return font
}

func parseStyleResource(decl *dsl.StyleDecl) rawStyle {
	style := rawStyle{
		Name:    decl.Name,
		Extends: decl.Extends,
		Props:   map[string]string{},
	}
	for key, val := range decl.Props.Map() {
		if s := val.Text(); s != "" {
			style.Props[key] = s
		}
	}
	return style
}

func resolveStyles(styles map[string]rawStyle) (map[string]rawStyle, error) {
	resolved := map[string]rawStyle{}
	visiting := map[string]bool{}

	var dfs func(name string) (rawStyle, error)
	dfs = func(name string) (rawStyle, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return rawStyle{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return rawStyle{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return rawStyle{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColor(value string) (layout.Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return layout.Color{
			R: mustHex(strings.Repeat(value[0:1], 2)),
			G: mustHex(strings.Repeat(value[1:2], 2)),
			B: mustHex(strings.Repeat(value[2:3], 2)),
		}, nil
	case 6, 8:
		return layout.Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

func resolvePageSize(page *dsl.PageSection) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(page.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", page.Size)
	}
	width, height := base[0], base[1]
	if page.Orientation == "landscape" {
		width, height = height, width
	}
	return width, height, nil
}

// resolveMargin 按 CSS 规则读取 margin 之后的 1~4 个长度，默认 20mm。
func resolveMargin(values []string) (layout.Margin, error) {
	if len(values) == 0 {
		return layout.Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}, nil
	}
	if len(values) > 4 {
		return layout.Margin{}, fmt.Errorf("margin 最多 4 个值，实际 %d 个", len(values))
	}
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		l, ok := layout.ParseRawLengthStr(v)
		if !ok {
			return layout.Margin{}, fmt.Errorf("margin %s 无法解析", v)
		}
		vals = append(vals, l.ToMM())
	}
	switch len(vals) {
	case 1:
		v := vals[0]
		return layout.Margin{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 2:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	default:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
}
