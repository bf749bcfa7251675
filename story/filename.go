package story

import (
	"regexp"
	"strings"
)

// DefaultFileName 是无法从数据中推导名称时使用的文件名。
const DefaultFileName = "comic-story.pdf"

const maxSlugLen = 50

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
)

// FileName 推导输出文件名：storyId → 角色名 → 标题 → 缺省名，最后追加 .pdf。
func FileName(doc Document) string {
	if id := slug(doc.StoryID); id != "" {
		return "comic-" + id + ".pdf"
	}
	if doc.HasCharacter() {
		if name := slug(doc.CharacterName); name != "" {
			return name + "-adventure.pdf"
		}
	}
	if doc.Title != DefaultTitle {
		if title := slug(doc.Title); title != "" {
			return title + ".pdf"
		}
	}
	return DefaultFileName
}

// slug 转小写，去掉非 [a-z0-9 空白 -] 字符，空白转连字符，并截断到 50 个字符。
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}
