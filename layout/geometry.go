package layout

import "math"

// Size 是宽高对，既可表示图片像素尺寸，也可表示页面毫米尺寸。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ratio 返回宽高比；零、负数、NaN 或无穷大一律按正方形（1）处理。
func (s Size) Ratio() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1
	}
	r := s.Width / s.Height
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return 1
	}
	return r
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Box 是页面坐标系中的矩形（mm），原点在左上角。
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PrintableArea 返回页面去掉页边距后的可排版区域。
func PrintableArea(page Size, m Margin) Box {
	return Box{
		X:      m.Left,
		Y:      m.Top,
		Width:  page.Width - m.Left - m.Right,
		Height: page.Height - m.Top - m.Bottom,
	}
}

func (b Box) Right() float64  { return b.X + b.Width }
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Area 返回面积；空盒子为 0。
func (b Box) Area() float64 {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// Empty 表示盒子没有正面积。
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Intersect 返回两个盒子的交集，不相交时返回零值。
func (b Box) Intersect(o Box) Box {
	x0 := math.Max(b.X, o.X)
	y0 := math.Max(b.Y, o.Y)
	x1 := math.Min(b.Right(), o.Right())
	y1 := math.Min(b.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Box{}
	}
	return Box{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Contains 判断 o 是否完全落在 b 内（允许极小的浮点误差）。
func (b Box) Contains(o Box) bool {
	const eps = 1e-9
	return o.X >= b.X-eps && o.Y >= b.Y-eps &&
		o.Right() <= b.Right()+eps && o.Bottom() <= b.Bottom()+eps
}

// Inset 向内收缩 d；收缩过度时保留中心点处的最小盒子。
func (b Box) Inset(d float64) Box {
	return b.InsetXY(d, d)
}

// InsetXY 分别在水平与垂直方向收缩。
func (b Box) InsetXY(dx, dy float64) Box {
	out := Box{X: b.X + dx, Y: b.Y + dy, Width: b.Width - 2*dx, Height: b.Height - 2*dy}
	if out.Width < minExtent {
		out.X = b.X + (b.Width-minExtent)/2
		out.Width = minExtent
	}
	if out.Height < minExtent {
		out.Y = b.Y + (b.Height-minExtent)/2
		out.Height = minExtent
	}
	return out
}

// Fit 在 b 内放置一个宽高比为 ratio 的最大矩形，并在两个方向上居中。
func (b Box) Fit(ratio float64) Box {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	w := b.Width
	h := w / ratio
	if h > b.Height {
		h = b.Height
		w = h * ratio
	}
	return Box{
		X:      b.X + (b.Width-w)/2,
		Y:      b.Y + (b.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// minExtent 是规划器输出盒子的最小边长（mm）。
const minExtent = 0.5
