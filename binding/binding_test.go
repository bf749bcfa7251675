package binding

import (
	"encoding/json"
	"testing"
)

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"characterName": "Mia",
		"pageCount":     5,
		"pages":         []any{map[string]any{"text": "first"}},
	}
	cases := map[string]string{
		"Featuring ${characterName}":         "Featuring Mia",
		"${pageCount} Page Adventure Story":  "5 Page Adventure Story",
		"${ pages[0].text }":                 "first",
		"${missing} stays":                   "${missing} stays",
		"no placeholders":                    "no placeholders",
		"${characterName}'s ${pageCount}-pg": "Mia's 5-pg",
	}
	for in, want := range cases {
		if got := Interpolate(in, data); got != want {
			t.Fatalf("Interpolate(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
	if got := Interpolate("${a}", nil); got != "${a}" {
		t.Fatalf("data 为空时应原样返回，实际 %q", got)
	}
}

func TestLookupNested(t *testing.T) {
	var data any
	if err := json.Unmarshal([]byte(`{"avatarId":{"avatarName":"Leo"},"panelUrls":["a","b"],"storyId":12345678}`), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s, ok := String(data, "avatarId.avatarName"); !ok || s != "Leo" {
		t.Fatalf("嵌套取值失败: %q %v", s, ok)
	}
	if s, ok := String(data, "panelUrls[1]"); !ok || s != "b" {
		t.Fatalf("数组下标取值失败: %q %v", s, ok)
	}
	if s, ok := String(data, "storyId"); !ok || s != "12345678" {
		t.Fatalf("数字应按原样格式化: %q", s)
	}
	if _, ok := String(data, "avatarId.prompt"); ok {
		t.Fatalf("缺失字段不应取到值")
	}
	if arr, ok := Slice(data, "panelUrls"); !ok || len(arr) != 2 {
		t.Fatalf("Slice 失败: %v %v", arr, ok)
	}
	if _, ok := Slice(data, "storyId"); ok {
		t.Fatalf("非数组不应返回 Slice")
	}
}
