package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ByLCY/storypress/binding"
)

// Detect 按 pages > comicUrl > panelUrls > data 的优先级识别原始数据结构。
func Detect(raw any) InputShape {
	if arr, ok := binding.Slice(raw, "pages"); ok && len(arr) > 0 {
		return ShapePages
	}
	if _, ok := binding.String(raw, "comicUrl"); ok {
		return ShapeComic
	}
	if _, ok := binding.Slice(raw, "panelUrls"); ok {
		return ShapePanels
	}
	if arr, ok := binding.Slice(raw, "data"); ok && len(arr) > 0 {
		return ShapeLegacyData
	}
	return ShapeNone
}

// Normalize 将任意原始数据转换为 Document，从不失败；无法识别时返回零页文档。
func Normalize(raw any) Document {
	doc := Document{
		Title:         firstString(raw, DefaultTitle, "storyTitle", "title"),
		CharacterName: firstString(raw, DefaultCharacterName, "avatarId.avatarName", "avatarDetails.name"),
		StoryID:       firstString(raw, "", "storyId", "_id"),
		Style:         firstString(raw, "", "style", "generatedContent.style"),
		Shape:         Detect(raw),
	}

	switch doc.Shape {
	case ShapePages:
		doc.Pages = entryPages(raw, "pages", "Page")
	case ShapeComic:
		url, _ := binding.String(raw, "comicUrl")
		doc.Pages = []Page{{
			ImageURL:    url,
			Text:        doc.Title + " - Full Comic",
			IsFullBleed: true,
		}}
	case ShapePanels:
		doc.Pages = panelPages(raw)
	case ShapeLegacyData:
		doc.Pages = entryPages(raw, "data", "Panel")
	case ShapeNone:
		doc.Pages = nil
	}

	if url, ok := binding.String(raw, "comicUrl"); ok {
		doc.CoverURL = url
	} else if len(doc.Pages) > 0 {
		doc.CoverURL = doc.Pages[0].ImageURL
	}
	return doc
}

// NormalizeJSON 解析 JSON 后归一化。只有 JSON 本身不合法时返回错误。
func NormalizeJSON(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("解析故事 JSON 失败: %w", err)
	}
	return Normalize(raw), nil
}

// entryPages 处理 [{image_url, text}] 形式的数组，缺少文字时使用 "<label> N"。
func entryPages(raw any, key, label string) []Page {
	arr, _ := binding.Slice(raw, key)
	pages := make([]Page, 0, len(arr))
	for i, entry := range arr {
		url, _ := binding.String(entry, "image_url")
		text, ok := binding.String(entry, "text")
		if !ok {
			text = fmt.Sprintf("%s %d", label, i+1)
		}
		pages = append(pages, Page{ImageURL: url, Text: text})
	}
	return pages
}

// panelPages 将 panelUrls 与 generatedContent.scenes 按下标配对，场景不足时使用 "Panel N"。
func panelPages(raw any) []Page {
	urls, _ := binding.Slice(raw, "panelUrls")
	scenes, _ := binding.Slice(raw, "generatedContent.scenes")
	pages := make([]Page, 0, len(urls))
	for i, u := range urls {
		url, _ := u.(string)
		text := ""
		if i < len(scenes) {
			text = sceneText(scenes[i])
		}
		if text == "" {
			text = fmt.Sprintf("Panel %d", i+1)
		}
		pages = append(pages, Page{ImageURL: strings.TrimSpace(url), Text: text})
	}
	return pages
}

// sceneText 兼容纯字符串场景与 {text|description} 对象。
func sceneText(scene any) string {
	if s, ok := scene.(string); ok {
		return strings.TrimSpace(s)
	}
	for _, key := range []string{"text", "description"} {
		if s, ok := binding.String(scene, key); ok {
			return s
		}
	}
	return ""
}

func firstString(raw any, fallback string, paths ...string) string {
	for _, p := range paths {
		if s, ok := binding.String(raw, p); ok {
			return s
		}
	}
	return fallback
}
