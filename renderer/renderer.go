package renderer

import "github.com/ByLCY/storypress/layout"

// Surface 是装配器的绘制目标，例如 PDF 或预览图。
//
// 调用顺序固定为 (BeginPage Draw* EndPage)* SetMeta Close。
// 坐标与尺寸均为 mm，原点在页面左上角。Surface 同时负责文字测量，
// 使折行结果与最终字体一致。
type Surface interface {
	layout.Measurer

	BeginPage(width, height float64) error
	Draw(cmd layout.Command) error
	EndPage() error
	SetMeta(meta layout.DocumentMeta)
	// Close 结束文档并返回生成的二进制数据（例如 PDF 字节切片）。
	Close() ([]byte, error)
}

// Factory 为每次渲染创建新的 Surface。
type Factory func() Surface
