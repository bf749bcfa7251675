// Package story 将上游服务产出的若干种故事数据结构归一化为统一的页面序列。
package story

import "fmt"

// 缺省值。
const (
	DefaultTitle         = "Untitled Story"
	DefaultCharacterName = "Character"
)

// InputShape 标记原始数据被识别成的结构。检测只做一次，下游据此穷举分支。
type InputShape int

const (
	ShapeNone InputShape = iota
	ShapePages
	ShapeComic
	ShapePanels
	ShapeLegacyData
)

func (s InputShape) String() string {
	switch s {
	case ShapePages:
		return "pages"
	case ShapeComic:
		return "comic"
	case ShapePanels:
		return "panels"
	case ShapeLegacyData:
		return "data"
	default:
		return "none"
	}
}

// MarshalText 让 JSON 报告中显示可读名称。
func (s InputShape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Page 是一页内容：一张图加一段文字。
type Page struct {
	ImageURL string `json:"imageUrl"`
	Text     string `json:"text"`
	// IsFullBleed 仅在整本漫画只有一张长图时为 true。
	IsFullBleed bool `json:"isFullBleed"`
}

// Document 是归一化后的故事。Pages 可以为空。
type Document struct {
	Title         string     `json:"title"`
	CharacterName string     `json:"characterName"`
	StoryID       string     `json:"storyId,omitempty"`
	Style         string     `json:"style,omitempty"`
	CoverURL      string     `json:"coverUrl,omitempty"`
	Pages         []Page     `json:"pages"`
	Shape         InputShape `json:"shape"`
}

// HasCharacter 表示角色名来自输入而非缺省值。
func (d Document) HasCharacter() bool {
	return d.CharacterName != "" && d.CharacterName != DefaultCharacterName
}

// IsFullComic 表示文档由单张整本漫画构成。
func (d Document) IsFullComic() bool {
	return d.Shape == ShapeComic
}

// MalformedInputError 表示没有识别出任何内容页。它不致命：调用方仍会得到只有封面/结束页的文档。
type MalformedInputError struct {
	Shape  InputShape
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("故事数据无法识别出内容页（shape=%s）: %s", e.Shape, e.Reason)
}

// Validate 在没有内容页时返回 *MalformedInputError。
func Validate(doc Document) error {
	if len(doc.Pages) > 0 {
		return nil
	}
	reason := "未找到 pages / comicUrl / panelUrls / data 中的任何一种"
	if doc.Shape != ShapeNone {
		reason = "识别出的结构中没有可用页面"
	}
	return &MalformedInputError{Shape: doc.Shape, Reason: reason}
}
