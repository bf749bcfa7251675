package layout

// 该文件定义排版结果与绘制指令，供装配、渲染与调试 JSON 共用。

// Result 保存排版后的页面序列与文档元信息。
type Result struct {
	Pages []Page       `json:"pages"`
	Meta  DocumentMeta `json:"meta"`
}

// Page 记录页面尺寸、所选版式以及按顺序执行的绘制指令。
type Page struct {
	Index    int       `json:"index"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Variant  Variant   `json:"variant"`
	Commands []Command `json:"commands"`
}

// Op 是绘制原语的种类。
type Op string

const (
	OpRect        Op = "rect"
	OpRoundedRect Op = "rounded-rect"
	OpImage       Op = "image"
	OpText        Op = "text"
)

// Command 是交给渲染面的一条绘制指令，坐标单位为 mm，原点在页面左上角。
//
// 对 text 指令，(X, Y) 为行框左上角，Width 为行框宽度（用于对齐），Height 为行高。
type Command struct {
	Op     Op        `json:"op"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	Fill   *Color    `json:"fill,omitempty"`
	Stroke *Stroke   `json:"stroke,omitempty"`
	Image  *ImageRef `json:"image,omitempty"`
	Text   *TextRun  `json:"text,omitempty"`
}

// Stroke 描述描边颜色与线宽（mm）。
type Stroke struct {
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

// ImageRef 指向一张已加载的图片。Data 只在该页绘制期间有效，绘制后被释放，不进入调试 JSON。
type ImageRef struct {
	URL         string `json:"url"`
	PixelWidth  int    `json:"pixelWidth"`
	PixelHeight int    `json:"pixelHeight"`
	Format      string `json:"format,omitempty"`
	Data        []byte `json:"-"`
}

// TextRun 是一行已经折好的文本。
type TextRun struct {
	Content string       `json:"content"`
	Font    FontResource `json:"font"`
	Size    float64      `json:"size"` // mm
	Color   Color        `json:"color"`
	Align   string       `json:"align,omitempty"` // left/center/right（默认 left）
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style,omitempty"`
	Family string `json:"family,omitempty"`
}

// TextStyle 是某一类文字（标题、正文、页码……）解析后的最终样式。
type TextStyle struct {
	Font       FontResource `json:"font"`
	Size       float64      `json:"size"`       // mm
	LineHeight float64      `json:"lineHeight"` // mm
	Color      Color        `json:"color"`
	Align      string       `json:"align,omitempty"`
}

// Run 用该样式包装一行文本。
func (s TextStyle) Run(content string) *TextRun {
	return &TextRun{Content: content, Font: s.Font, Size: s.Size, Color: s.Color, Align: s.Align}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Gray 返回 R=G=B=v 的灰色。
func Gray(v int) Color { return Color{R: v, G: v, B: v} }

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
