package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("zh", l10n.LexiconMap{
		// CLI
		"Rendering %s":                    "正在渲染 %s",
		"Saved %s (%d pages, %d bytes)":   "已生成 %s（%d 页，%d 字节）",
		"Wrote layout debug JSON to %s":   "已输出布局调试 JSON：%s",
		"Failed to render %s: %v":         "渲染 %s 失败：%v",
		"Rendered %d of %d files":         "已完成 %d/%d 个文件",
		"Interrupted, shutting down...":   "收到中断信号，正在退出……",

		// assembler
		"Render %s started: shape=%s, %d content pages": "渲染 %s 开始：结构=%s，内容页 %d 页",
		"Cover image unavailable, skipping cover: %v":    "封面图片不可用，跳过封面：%v",
		"Page %d image unavailable, using text-only layout: %v": "第 %d 页图片不可用，改用纯文字版式：%v",
		"Page %d text overflows its box":                 "第 %d 页文字超出文字框",
		"Page %d planned as %s":                          "第 %d 页版式：%s",
		"No content pages found: %v":                     "未找到内容页：%v",
		"Render %s finished: %d pages, %d fallbacks":     "渲染 %s 完成：共 %d 页，%d 页降级",
	})
}
