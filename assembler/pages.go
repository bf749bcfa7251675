package assembler

import (
	"github.com/ByLCY/storypress/imageloader"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/profile"
	"github.com/ByLCY/storypress/story"
)

// 装饰参数（mm）。
const (
	coverBorderRadius = 4
	coverBorderWidth  = 0.5
	coverInfoGap      = 5

	imageBorderRadius = 5
	imageBorderWidth  = 0.4
	panelRadius       = 8
	panelStrokeWidth  = 0.5
	widePadding       = 12
	sidePadding       = 10
	pageNumberInset   = 5

	endFrameWidth    = 0.8
	endTitleOffset   = 20 // 标题中心在页面中线上方
	endSummaryOffset = 10 // 摘要首行在页面中线下方
	endSummaryInset  = 30
	endCreditGap     = 2
)

var white = layout.Gray(255)

func (r *run) color(name string, fallback layout.Color) layout.Color {
	if c, ok := r.profile.Colors[name]; ok {
		return c
	}
	return fallback
}

func (r *run) background(c layout.Color) layout.Command {
	return layout.Command{Op: layout.OpRect, Width: r.profile.Page.Width, Height: r.profile.Page.Height, Fill: &c}
}

func imageCommand(box layout.Box, img *imageloader.LoadedImage) layout.Command {
	return layout.Command{
		Op: layout.OpImage, X: box.X, Y: box.Y, Width: box.Width, Height: box.Height,
		Image: &layout.ImageRef{
			URL:         img.URL,
			PixelWidth:  img.PixelWidth,
			PixelHeight: img.PixelHeight,
			Format:      img.Format,
			Data:        img.Bytes,
		},
	}
}

func border(box layout.Box, radius float64, c layout.Color, width float64) layout.Command {
	return layout.Command{
		Op: layout.OpRoundedRect, X: box.X, Y: box.Y, Width: box.Width, Height: box.Height,
		Radius: radius, Stroke: &layout.Stroke{Color: c, Width: width},
	}
}

// line 生成一个以 centerY 为行框中心的单行文本。
func line(text string, x, centerY, width float64, style layout.TextStyle) layout.Command {
	lh := style.LineHeight
	if lh <= 0 {
		lh = style.Size * 1.4
	}
	return layout.Command{Op: layout.OpText, X: x, Y: centerY - lh/2, Width: width, Height: lh, Text: style.Run(text)}
}

func (r *run) coverCommands(pl layout.PageLayout, img *imageloader.LoadedImage) []layout.Command {
	p := r.profile
	cmds := []layout.Command{r.background(white)}

	// 标题列：书名、主角、页数自上而下排列
	box := pl.TextBox
	titleStyle := p.Style(profile.StyleCoverTitle)
	title, y := r.flow.Stack(r.doc.Title, box.X, box.Y, box.Width, titleStyle)
	cmds = append(cmds, title.Commands(titleStyle)...)
	y += coverInfoGap

	subStyle := p.Style(profile.StyleCoverSubtitle)
	sub, y := r.flow.Stack(p.Text(profile.StringCoverFeaturing, r.vars), box.X, y, box.Width, subStyle)
	cmds = append(cmds, sub.Commands(subStyle)...)

	detailStyle := p.Style(profile.StyleCoverDetail)
	detail, _ := r.flow.Stack(p.Text(profile.StringCoverPages, r.vars), box.X, y, box.Width, detailStyle)
	cmds = append(cmds, detail.Commands(detailStyle)...)

	cmds = append(cmds,
		imageCommand(pl.ImageFit, img),
		border(pl.ImageFit, coverBorderRadius, r.color("CoverBorder", layout.Gray(200)), coverBorderWidth),
	)

	// 署名居中放在封面底部留白里
	area := r.area
	footer := r.planner.Config().CoverFooter
	cmds = append(cmds, line(p.Text(profile.StringCoverCredit, r.vars),
		area.X, area.Bottom()-footer/2, area.Width, p.Style(profile.StyleCoverCredit)))
	return cmds
}

// contentCommands 返回一张内容页的指令，以及文字是否溢出。
func (r *run) contentCommands(pl layout.PageLayout, img *imageloader.LoadedImage, page story.Page, number int) ([]layout.Command, bool) {
	p := r.profile
	cmds := []layout.Command{r.background(white)}

	if pl.HasImage && img != nil {
		cmds = append(cmds,
			imageCommand(pl.ImageFit, img),
			border(pl.ImageFit, imageBorderRadius, r.color("ImageBorder", layout.Gray(230)), imageBorderWidth),
		)
	}

	styleName, pad := profile.StyleCaptionWide, float64(widePadding)
	if pl.Variant == layout.VariantSideBySide {
		styleName, pad = profile.StyleCaptionSide, sidePadding
	}
	style := p.Style(styleName)

	overflowed := false
	if page.Text != "" {
		fill := r.color("PanelFill", layout.Color{R: 251, G: 252, B: 254})
		box := pl.TextBox
		cmds = append(cmds, layout.Command{
			Op: layout.OpRoundedRect, X: box.X, Y: box.Y, Width: box.Width, Height: box.Height,
			Radius: panelRadius, Fill: &fill,
			Stroke: &layout.Stroke{Color: r.color("PanelStroke", layout.Color{R: 210, G: 220, B: 235}), Width: panelStrokeWidth},
		})
		block := r.flow.Flow(page.Text, box, style, pad)
		cmds = append(cmds, block.Commands(style)...)
		overflowed = block.Overflowed
	}

	// 整本漫画只有一页，不编页码
	if !r.doc.IsFullComic() {
		vars := map[string]any{"page": number}
		for k, v := range r.vars {
			vars[k] = v
		}
		bottom := p.Page.Height - r.area.Bottom()
		cmds = append(cmds, line(p.Text(profile.StringPageNumber, vars),
			r.area.X, r.area.Bottom()+bottom/2, r.area.Width-pageNumberInset, p.Style(profile.StylePageNumber)))
	}
	return cmds, overflowed
}

func (r *run) endCommands(pl layout.PageLayout) []layout.Command {
	p := r.profile
	frame := pl.TextBox
	cmds := []layout.Command{
		r.background(r.color("EndFill", layout.Color{R: 250, G: 252, B: 255})),
		{
			Op: layout.OpRect, X: frame.X, Y: frame.Y, Width: frame.Width, Height: frame.Height,
			Stroke: &layout.Stroke{Color: r.color("EndFrame", layout.Gray(220)), Width: endFrameWidth},
		},
	}

	mid := p.Page.Height / 2
	cmds = append(cmds, line(p.Text(profile.StringEndTitle, r.vars),
		frame.X, mid-endTitleOffset, frame.Width, p.Style(profile.StyleEndTitle)))

	summaryStyle := p.Style(profile.StyleEndSummary)
	inner := r.area.InsetXY(endSummaryInset, 0)
	summary, _ := r.flow.Stack(p.Text(profile.StringEndSummary, r.vars),
		inner.X, mid+endSummaryOffset-summaryStyle.LineHeight/2, inner.Width, summaryStyle)
	cmds = append(cmds, summary.Commands(summaryStyle)...)

	creditStyle := p.Style(profile.StyleEndCredit)
	cmds = append(cmds, layout.Command{
		Op: layout.OpText, X: frame.X, Y: frame.Bottom() - creditStyle.LineHeight - endCreditGap,
		Width: frame.Width, Height: creditStyle.LineHeight, Text: creditStyle.Run(p.Text(profile.StringEndCredit, r.vars)),
	})
	return cmds
}
