package layout

import (
	"strings"
	"unicode/utf8"
)

// Measurer 测量一行文本的宽度。size 与返回值均为 mm。
// 渲染面基于真实字体实现该接口；规划阶段测试可以使用 ApproxMeasurer。
type Measurer interface {
	TextWidth(text string, font FontResource, size float64) float64
}

// ApproxMeasurer 按字符数估算宽度，与字体无关。
type ApproxMeasurer struct{}

// TextWidth 实现 Measurer。
func (ApproxMeasurer) TextWidth(text string, _ FontResource, size float64) float64 {
	if size <= 0 {
		size = 12 * PtToMm
	}
	return size * 0.55 * float64(utf8.RuneCountInString(text))
}

// TextBlock 是折行并定位后的文本块。
type TextBlock struct {
	Lines      []string `json:"lines"`
	LineHeight float64  `json:"lineHeight"`
	// StartY 为首行行框顶部的页面坐标。
	StartY     float64 `json:"startY"`
	X          float64 `json:"x"`
	Width      float64 `json:"width"`
	Overflowed bool    `json:"overflowed"`
}

// Height 返回所有行叠加后的高度。
func (b TextBlock) Height() float64 { return float64(len(b.Lines)) * b.LineHeight }

// TextFlow 负责贪心折行与垂直居中。
type TextFlow struct {
	measurer Measurer
	minTop   float64
}

// NewTextFlow 创建文本流引擎。minTop 为文字溢出时距框顶的最小留白（mm）。
func NewTextFlow(m Measurer, minTop float64) *TextFlow {
	if m == nil {
		m = ApproxMeasurer{}
	}
	if minTop < 0 {
		minTop = 0
	}
	return &TextFlow{measurer: m, minTop: minTop}
}

// Wrap 以空白分词做贪心折行：只要加入下一个词后宽度不超过 maxWidth 就继续累加。
// 单个词比 maxWidth 还宽时独占一行，不做断词。
func (f *TextFlow) Wrap(text string, maxWidth float64, font FontResource, size float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var (
		lines   []string
		current strings.Builder
	)
	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		candidate := current.String() + " " + word
		if f.measurer.TextWidth(candidate, font, size) <= maxWidth {
			current.WriteString(" ")
			current.WriteString(word)
			continue
		}
		lines = append(lines, current.String())
		current.Reset()
		current.WriteString(word)
	}
	lines = append(lines, current.String())
	return lines
}

// VerticalCenter 计算文本块在框内垂直居中时的起始偏移。
// 偏移小于最小留白时被钳制，此时若文本超出框底则报告溢出；溢出部分照常绘制，不裁剪。
func (f *TextFlow) VerticalCenter(lineCount int, lineHeight, boxHeight float64) (float64, bool) {
	content := float64(lineCount) * lineHeight
	start := (boxHeight - content) / 2
	if start < f.minTop {
		start = f.minTop
	}
	return start, start+content > boxHeight
}

// Flow 在 box 内按 style 折行并垂直居中，padX 为左右内边距。
func (f *TextFlow) Flow(text string, box Box, style TextStyle, padX float64) TextBlock {
	inner := box.InsetXY(padX, 0)
	lines := f.Wrap(text, inner.Width, style.Font, style.Size)
	lh := style.LineHeight
	if lh <= 0 {
		lh = style.Size * 1.4
	}
	offset, overflowed := f.VerticalCenter(len(lines), lh, box.Height)
	return TextBlock{
		Lines:      lines,
		LineHeight: lh,
		StartY:     box.Y + offset,
		X:          inner.X,
		Width:      inner.Width,
		Overflowed: overflowed,
	}
}

// Stack 将文本从 y 开始自上而下排列（不居中），返回块与下一行的起点。
func (f *TextFlow) Stack(text string, x, y, width float64, style TextStyle) (TextBlock, float64) {
	lines := f.Wrap(text, width, style.Font, style.Size)
	lh := style.LineHeight
	if lh <= 0 {
		lh = style.Size * 1.4
	}
	block := TextBlock{Lines: lines, LineHeight: lh, StartY: y, X: x, Width: width}
	return block, y + block.Height()
}

// Commands 把文本块转换为逐行的 text 指令。
func (b TextBlock) Commands(style TextStyle) []Command {
	cmds := make([]Command, 0, len(b.Lines))
	for i, line := range b.Lines {
		cmds = append(cmds, Command{
			Op:     OpText,
			X:      b.X,
			Y:      b.StartY + float64(i)*b.LineHeight,
			Width:  b.Width,
			Height: b.LineHeight,
			Text:   style.Run(line),
		})
	}
	return cmds
}
