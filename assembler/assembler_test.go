package assembler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ByLCY/storypress/imageloader"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/story"
)

// stubLoader 按 URL 返回预设尺寸；未登记的地址视为加载失败。
type stubLoader map[string][2]int

func (s stubLoader) Load(ctx context.Context, url string) (*imageloader.LoadedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &imageloader.ImageLoadError{URL: url, Cause: err}
	}
	dims, ok := s[url]
	if !ok {
		return nil, &imageloader.ImageLoadError{URL: url, Cause: errors.New("404")}
	}
	return &imageloader.LoadedImage{URL: url, PixelWidth: dims[0], PixelHeight: dims[1], Format: "png", Bytes: []byte("img")}, nil
}

// recorder 记录渲染面收到的调用。
type recorder struct {
	pages   [][]layout.Command
	open    bool
	meta    layout.DocumentMeta
	metaSet int
	failOn  int // 第几页 BeginPage 失败，0 表示不失败
	seen    []string
}

func (r *recorder) TextWidth(text string, _ layout.FontResource, size float64) float64 {
	return layout.ApproxMeasurer{}.TextWidth(text, layout.FontResource{}, size)
}

func (r *recorder) BeginPage(w, h float64) error {
	if r.open {
		return errors.New("page already open")
	}
	if r.failOn == len(r.pages)+1 {
		return errors.New("disk full")
	}
	r.open = true
	r.pages = append(r.pages, nil)
	return nil
}

func (r *recorder) Draw(cmd layout.Command) error {
	if !r.open {
		return errors.New("no page")
	}
	if cmd.Image != nil {
		r.seen = append(r.seen, string(cmd.Image.Data))
	}
	r.pages[len(r.pages)-1] = append(r.pages[len(r.pages)-1], cmd)
	return nil
}

func (r *recorder) EndPage() error {
	r.open = false
	return nil
}

func (r *recorder) SetMeta(meta layout.DocumentMeta) {
	r.meta = meta
	r.metaSet++
}

func (r *recorder) Close() ([]byte, error) { return nil, nil }

func texts(cmds []layout.Command) []string {
	var out []string
	for _, c := range cmds {
		if c.Op == layout.OpText {
			out = append(out, c.Text.Content)
		}
	}
	return out
}

func fivePages(failing int) (story.Document, stubLoader) {
	loader := stubLoader{"cover.png": {1024, 1024}}
	doc := story.Document{Title: "Moon Trip", CharacterName: "Mia", CoverURL: "cover.png", Shape: story.ShapePages}
	for i := 1; i <= 5; i++ {
		url := fmt.Sprintf("p%d.png", i)
		if i != failing {
			loader[url] = [2]int{800, 600}
		}
		doc.Pages = append(doc.Pages, story.Page{ImageURL: url, Text: fmt.Sprintf("Scene %d", i)})
	}
	return doc, loader
}

func TestFailedPageFallsBackToTextOnly(t *testing.T) {
	doc, loader := fivePages(3)
	rec := &recorder{}
	res, report, err := New(Options{Loader: loader}).Assemble(context.Background(), doc, rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(res.Pages) != 7 || len(rec.pages) != 7 {
		t.Fatalf("期望 7 页，实际 %d / %d", len(res.Pages), len(rec.pages))
	}
	if res.Pages[0].Variant != layout.VariantCover || res.Pages[6].Variant != layout.VariantEndPage {
		t.Fatalf("首尾页版式错误: %s %s", res.Pages[0].Variant, res.Pages[6].Variant)
	}
	if res.Pages[3].Variant != layout.VariantTextOnly {
		t.Fatalf("第 3 张内容页应为 text-only，实际 %s", res.Pages[3].Variant)
	}
	for _, i := range []int{1, 2, 4, 5} {
		if res.Pages[i].Variant != layout.VariantSideBySide {
			t.Fatalf("4:3 图片应为 side-by-side，第 %d 页为 %s", i, res.Pages[i].Variant)
		}
	}
	for _, c := range rec.pages[3] {
		if c.Op == layout.OpImage {
			t.Fatalf("text-only 页不应包含图片")
		}
	}
	if len(report.Fallbacks) != 1 || report.Fallbacks[0].Page != 3 || report.Fallbacks[0].URL != "p3.png" {
		t.Fatalf("报告应记录第 3 页回退: %+v", report.Fallbacks)
	}
	var loadErr *imageloader.ImageLoadError
	if !errors.As(report.Fallbacks[0].Err, &loadErr) {
		t.Fatalf("回退原因应为 ImageLoadError: %v", report.Fallbacks[0].Err)
	}
	if !report.CoverEmitted || report.TotalPages != 7 || report.ContentPages != 5 || !report.Degraded() {
		t.Fatalf("报告字段错误: %+v", report)
	}
	if report.RenderID == "" {
		t.Fatalf("缺少 RenderID")
	}
	// 页码
	got := texts(rec.pages[2])
	if got[len(got)-1] != "2 of 5" {
		t.Fatalf("第 2 张内容页页码错误: %q", got)
	}
	for i, p := range res.Pages {
		if p.Index != i+1 {
			t.Fatalf("页序号错误: %d", p.Index)
		}
	}
}

func TestCoverAndEndText(t *testing.T) {
	doc, loader := fivePages(0)
	rec := &recorder{}
	_, _, err := New(Options{Loader: loader}).Assemble(context.Background(), doc, rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	cover := strings.Join(texts(rec.pages[0]), "|")
	for _, want := range []string{"Moon Trip", "Featuring Mia", "5 Page Adventure Story", "Created with StoryTymeAI"} {
		if !strings.Contains(cover, want) {
			t.Fatalf("封面缺少 %q: %s", want, cover)
		}
	}
	end := strings.Join(texts(rec.pages[6]), " ")
	if !strings.Contains(end, "The End") || !strings.Contains(end, "Mia's amazing adventure") {
		t.Fatalf("结束页文字错误: %s", end)
	}
	if rec.metaSet != 1 {
		t.Fatalf("元信息应只设置一次，实际 %d", rec.metaSet)
	}
	if rec.meta.Title != "Moon Trip" || rec.meta.Subject != "Mia's Adventure Story" || rec.meta.Author != "StoryTymeAI" {
		t.Fatalf("元信息错误: %+v", rec.meta)
	}
}

func TestCoverFailureSkipsCover(t *testing.T) {
	doc, loader := fivePages(0)
	delete(loader, "cover.png")
	rec := &recorder{}
	res, report, err := New(Options{Loader: loader}).Assemble(context.Background(), doc, rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(res.Pages) != 6 || res.Pages[0].Variant == layout.VariantCover {
		t.Fatalf("封面加载失败时应为 N+1 页且无封面: %d", len(res.Pages))
	}
	if report.CoverEmitted || report.CoverErr == nil {
		t.Fatalf("报告应记录封面失败: %+v", report)
	}
}

func TestEmptyInputRendersEndPage(t *testing.T) {
	doc := story.Normalize(map[string]any{})
	rec := &recorder{}
	res, report, err := New(Options{Loader: stubLoader{}}).Assemble(context.Background(), doc, rec)
	if err != nil {
		t.Fatalf("空输入不应报错: %v", err)
	}
	if len(res.Pages) != 1 || res.Pages[0].Variant != layout.VariantEndPage {
		t.Fatalf("空输入应只渲染结束页: %d", len(res.Pages))
	}
	var malformed *story.MalformedInputError
	if !errors.As(report.Malformed, &malformed) {
		t.Fatalf("报告应包含 MalformedInputError: %v", report.Malformed)
	}
}

func TestFullComicHasNoPageNumber(t *testing.T) {
	doc := story.Normalize(map[string]any{"title": "Space", "comicUrl": "comic.png"})
	loader := stubLoader{"comic.png": {600, 2400}}
	rec := &recorder{}
	res, _, err := New(Options{Loader: loader}).Assemble(context.Background(), doc, rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("整本漫画应为 封面+1+结束页，实际 %d", len(res.Pages))
	}
	for _, s := range texts(rec.pages[1]) {
		if strings.HasSuffix(s, "of 1") {
			t.Fatalf("整本漫画不应有页码: %q", s)
		}
	}
}

func TestWideImageUsesCaptionLayout(t *testing.T) {
	doc := story.Document{Title: "T", CharacterName: "C", Shape: story.ShapePages,
		Pages: []story.Page{{ImageURL: "wide.png", Text: "A very wide panel"}}}
	res, _, err := New(Options{Loader: stubLoader{"wide.png": {1600, 600}}}).Assemble(context.Background(), doc, &recorder{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	page := res.Pages[0]
	if page.Variant != layout.VariantFullBleedCaption {
		t.Fatalf("宽图应为 full-bleed-caption，实际 %s", page.Variant)
	}
	for _, c := range page.Commands {
		if c.Image != nil && c.Image.Data != nil {
			t.Fatalf("结果中的图片字节应已释放")
		}
	}
}

func TestImageBytesReachSurface(t *testing.T) {
	doc, loader := fivePages(0)
	rec := &recorder{}
	if _, _, err := New(Options{Loader: loader}).Assemble(context.Background(), doc, rec); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(rec.seen) != 6 {
		t.Fatalf("应绘制 6 张图片，实际 %d", len(rec.seen))
	}
	for _, s := range rec.seen {
		if s != "img" {
			t.Fatalf("绘制时图片字节不应为空")
		}
	}
}

func TestOverflowReported(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	doc := story.Document{Title: "T", CharacterName: "C", Shape: story.ShapePages,
		Pages: []story.Page{{ImageURL: "p.png", Text: long}}}
	_, report, err := New(Options{Loader: stubLoader{"p.png": {800, 800}}}).Assemble(context.Background(), doc, &recorder{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(report.Overflows) != 1 || report.Overflows[0] != 1 {
		t.Fatalf("应报告第 1 页溢出: %v", report.Overflows)
	}
}

func TestCancelledContext(t *testing.T) {
	doc, loader := fivePages(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(Options{Loader: loader}).Assemble(ctx, doc, &recorder{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("取消后应返回 context.Canceled，实际 %v", err)
	}
}

func TestCancelDuringLoad(t *testing.T) {
	doc, loader := fivePages(0)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	l := imageloader.LoaderFunc(func(c context.Context, url string) (*imageloader.LoadedImage, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return loader.Load(c, url)
	})
	rec := &recorder{}
	_, report, err := New(Options{Loader: l}).Assemble(ctx, doc, rec)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("加载中取消应返回 context.Canceled，实际 %v", err)
	}
	if len(report.Fallbacks) != 0 {
		t.Fatalf("取消不应记为回退: %+v", report.Fallbacks)
	}
	if len(rec.pages) != 2 {
		t.Fatalf("取消前应已渲染 2 页，实际 %d", len(rec.pages))
	}
}

func TestSurfaceFailureIsFatal(t *testing.T) {
	doc, loader := fivePages(0)
	_, _, err := New(Options{Loader: loader}).Assemble(context.Background(), doc, &recorder{failOn: 4})
	var fatal *RenderFatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("渲染面失败应返回 RenderFatalError，实际 %v", err)
	}
	if fatal.Page != 4 || !strings.Contains(fatal.Error(), "disk full") {
		t.Fatalf("错误信息不完整: %v", fatal)
	}
}
