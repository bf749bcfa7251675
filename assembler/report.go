package assembler

import (
	"fmt"

	"github.com/ByLCY/storypress/story"
)

// Report 汇总一次渲染中发生的可恢复问题。
type Report struct {
	RenderID     string           `json:"renderId"`
	Shape        story.InputShape `json:"shape"`
	ContentPages int              `json:"contentPages"`
	TotalPages   int              `json:"totalPages"`
	CoverEmitted bool             `json:"coverEmitted"`
	// CoverErr 为封面图片加载失败的原因；没有封面地址时为 nil。
	CoverErr  error      `json:"-"`
	Fallbacks []Fallback `json:"fallbacks,omitempty"`
	// Overflows 列出文字超出文字框的内容页序号（从 1 开始）。
	Overflows []int `json:"overflows,omitempty"`
	// Malformed 为 *story.MalformedInputError，表示没有识别出内容页。
	Malformed error `json:"-"`
}

// Fallback 记录一张因图片不可用而改用纯文字版式的内容页。
type Fallback struct {
	Page int    `json:"page"`
	URL  string `json:"url"`
	Err  error  `json:"-"`
}

// Degraded 表示输出与输入相比有内容缺失。
func (r *Report) Degraded() bool {
	return r.Malformed != nil || r.CoverErr != nil || len(r.Fallbacks) > 0
}

// RenderFatalError 表示渲染面失败，渲染随之中止。Page 为出错页在文档中的序号（从 1 开始），0 表示文档级错误。
type RenderFatalError struct {
	Page  int
	Cause error
}

func (e *RenderFatalError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("渲染文档失败: %v", e.Cause)
	}
	return fmt.Sprintf("渲染第 %d 页失败: %v", e.Page, e.Cause)
}

func (e *RenderFatalError) Unwrap() error { return e.Cause }
