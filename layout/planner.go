package layout

import "math"

// Variant 是某一页选定的版式。
type Variant string

const (
	VariantCover            Variant = "cover"
	VariantFullBleedCaption Variant = "full-bleed-caption"
	VariantSideBySide       Variant = "side-by-side"
	// VariantTextOnly 用于图片加载失败的内容页：文字占满整个可排版区域。
	VariantTextOnly Variant = "text-only"
	VariantEndPage  Variant = "end-page"
)

// Config 汇总版式选择与几何计算用到的常量。比例类字段是可排版区域宽/高的分数，其余为 mm。
type Config struct {
	WideRatio        float64 `json:"wideRatio"`        // 宽高比大于该值时走 FullBleedCaption
	MaxImageHeight   float64 `json:"maxImageHeight"`   // FullBleedCaption 图片最大高度占比
	ImageColumn      float64 `json:"imageColumn"`      // SideBySide 图片列宽占比
	TextColumn       float64 `json:"textColumn"`       // SideBySide 文字列宽占比
	CoverTitleColumn float64 `json:"coverTitleColumn"` // 封面标题列宽占比
	CaptionGap       float64 `json:"captionGap"`       // 宽图与下方文字之间的间距
	ImageInset       float64 `json:"imageInset"`       // SideBySide 图片上下留白
	CoverGap         float64 `json:"coverGap"`         // 封面标题列与图片之间的间距
	CoverFooter      float64 `json:"coverFooter"`      // 封面底部留给署名的高度
	EndInset         float64 `json:"endInset"`         // 结束页边框相对可排版区域的内缩
}

// DefaultConfig 返回横向 A4 下调好的默认值。
func DefaultConfig() Config {
	return Config{
		WideRatio:        1.5,
		MaxImageHeight:   0.65,
		ImageColumn:      0.60,
		TextColumn:       0.35,
		CoverTitleColumn: 0.35,
		CaptionGap:       10,
		ImageInset:       7,
		CoverGap:         8,
		CoverFooter:      10,
		EndInset:         8,
	}
}

// normalized 用默认值替换越界字段，保证规划结果不出现重叠或非正尺寸。
func (c Config) normalized() Config {
	def := DefaultConfig()
	fraction := func(v, fallback float64) float64 {
		if v <= 0 || v >= 1 || math.IsNaN(v) {
			return fallback
		}
		return v
	}
	length := func(v, fallback float64) float64 {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
		return v
	}
	if c.WideRatio <= 0 || math.IsNaN(c.WideRatio) || math.IsInf(c.WideRatio, 0) {
		c.WideRatio = def.WideRatio
	}
	c.MaxImageHeight = fraction(c.MaxImageHeight, def.MaxImageHeight)
	c.ImageColumn = fraction(c.ImageColumn, def.ImageColumn)
	c.TextColumn = fraction(c.TextColumn, def.TextColumn)
	if c.ImageColumn+c.TextColumn > 1 {
		c.ImageColumn, c.TextColumn = def.ImageColumn, def.TextColumn
	}
	c.CoverTitleColumn = fraction(c.CoverTitleColumn, def.CoverTitleColumn)
	c.CaptionGap = length(c.CaptionGap, def.CaptionGap)
	c.ImageInset = length(c.ImageInset, def.ImageInset)
	c.CoverGap = length(c.CoverGap, def.CoverGap)
	c.CoverFooter = length(c.CoverFooter, def.CoverFooter)
	c.EndInset = length(c.EndInset, def.EndInset)
	return c
}

// PageLayout 是一页的纯几何规划结果。
//
// ImageBox 是留给图片的区域，ImageFit 是其中保持宽高比的实际绘制矩形。
// HasImage 为 false 时两者均为零值。
type PageLayout struct {
	Variant  Variant `json:"variant"`
	HasImage bool    `json:"hasImage"`
	ImageBox Box     `json:"imageBox"`
	ImageFit Box     `json:"imageFit"`
	TextBox  Box     `json:"textBox"`
}

// Coverage 返回图片区域与文字区域合计占可排版区域的比例。
func (pl PageLayout) Coverage(area Box) float64 {
	if area.Area() == 0 {
		return 0
	}
	return (pl.ImageBox.Area() + pl.TextBox.Area()) / area.Area()
}

// UnusedArea 返回可排版区域中既没有被实际图片、也没有被文字区域占用的面积。
func UnusedArea(pl PageLayout, area Box) float64 {
	used := pl.TextBox.Area()
	if pl.HasImage {
		used += pl.ImageFit.Area()
	}
	return math.Max(area.Area()-used, 0)
}

// Planner 根据图片尺寸与可排版区域计算版式，不产生任何副作用。
type Planner struct {
	cfg Config
}

// NewPlanner 使用给定常量创建规划器，越界的字段回退为默认值。
func NewPlanner(cfg Config) *Planner {
	return &Planner{cfg: cfg.normalized()}
}

// Config 返回规划器实际使用的常量。
func (p *Planner) Config() Config { return p.cfg }

// ChooseVariant 按宽高比选择内容页版式。
func (p *Planner) ChooseVariant(dims Size) Variant {
	if dims.Ratio() > p.cfg.WideRatio {
		return VariantFullBleedCaption
	}
	return VariantSideBySide
}

// PlanContent 规划一张内容页。dims 为 nil 表示图片不可用，此时走 TextOnly。
func (p *Planner) PlanContent(dims *Size, area Box) PageLayout {
	if dims == nil {
		return p.PlanContentVariant(VariantTextOnly, nil, area)
	}
	return p.PlanContentVariant(p.ChooseVariant(*dims), dims, area)
}

// PlanContentVariant 按指定版式规划内容页，便于比较两种版式的效果。
func (p *Planner) PlanContentVariant(v Variant, dims *Size, area Box) PageLayout {
	if dims == nil {
		v = VariantTextOnly
	}
	switch v {
	case VariantFullBleedCaption:
		return p.fullBleed(dims.Ratio(), area)
	case VariantSideBySide:
		return p.sideBySide(dims.Ratio(), area)
	default:
		return PageLayout{Variant: VariantTextOnly, TextBox: area}
	}
}

func (p *Planner) fullBleed(ratio float64, area Box) PageLayout {
	gap := p.cfg.CaptionGap
	imgH := math.Min(area.Width/ratio, p.cfg.MaxImageHeight*area.Height)
	textH := area.Height - imgH - gap
	if textH < minExtent {
		textH = minExtent
		imgH = math.Max(area.Height-gap-textH, minExtent)
	}
	region := Box{X: area.X, Y: area.Y, Width: area.Width, Height: imgH}
	return PageLayout{
		Variant:  VariantFullBleedCaption,
		HasImage: true,
		ImageBox: region,
		ImageFit: region.Fit(ratio),
		TextBox:  Box{X: area.X, Y: area.Bottom() - textH, Width: area.Width, Height: textH},
	}
}

func (p *Planner) sideBySide(ratio float64, area Box) PageLayout {
	column := Box{X: area.X, Y: area.Y, Width: p.cfg.ImageColumn * area.Width, Height: area.Height}
	textW := p.cfg.TextColumn * area.Width
	return PageLayout{
		Variant:  VariantSideBySide,
		HasImage: true,
		ImageBox: column,
		ImageFit: column.InsetXY(0, p.cfg.ImageInset).Fit(ratio),
		TextBox:  Box{X: area.Right() - textW, Y: area.Y, Width: textW, Height: area.Height},
	}
}

// PlanCover 规划封面：左侧标题列顶部对齐，右侧图片尽可能大并垂直居中。
func (p *Planner) PlanCover(dims Size, area Box) PageLayout {
	bodyH := area.Height - p.cfg.CoverFooter
	if bodyH < minExtent {
		bodyH = area.Height
	}
	titleW := p.cfg.CoverTitleColumn * area.Width
	imgW := area.Width - titleW - p.cfg.CoverGap
	if imgW < minExtent {
		imgW = area.Width - titleW
	}
	region := Box{X: area.Right() - imgW, Y: area.Y, Width: imgW, Height: bodyH}
	return PageLayout{
		Variant:  VariantCover,
		HasImage: true,
		ImageBox: region,
		ImageFit: region.Fit(dims.Ratio()),
		TextBox:  Box{X: area.X, Y: area.Y, Width: titleW, Height: bodyH},
	}
}

// PlanEnd 规划结束页：文字区域即边框内部。
func (p *Planner) PlanEnd(area Box) PageLayout {
	return PageLayout{
		Variant: VariantEndPage,
		TextBox: area.Inset(p.cfg.EndInset),
	}
}
