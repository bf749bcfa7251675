package fonts

import (
	"bytes"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func TestLoadBuiltin(t *testing.T) {
	for _, src := range []string{"builtin:regular", "embed:regular", "Go-Regular.ttf"} {
		data, err := Load(src)
		if err != nil {
			t.Fatalf("Load(%q): %v", src, err)
		}
		if !bytes.Equal(data, goregular.TTF) {
			t.Fatalf("Load(%q) 返回了错误的字体", src)
		}
	}
	if _, err := Load("builtin:comic-sans"); err == nil {
		t.Fatalf("未知字体应报错")
	}
}

func TestForStyle(t *testing.T) {
	if !bytes.Equal(ForStyle("Bold"), gobold.TTF) {
		t.Fatalf("bold 样式应返回粗体")
	}
	if !bytes.Equal(ForStyle(""), goregular.TTF) {
		t.Fatalf("空样式应返回常规体")
	}
	if !IsBuiltin("builtin:bold") || IsBuiltin("./fonts/a.ttf") {
		t.Fatalf("IsBuiltin 判断错误")
	}
}

func TestReadFile(t *testing.T) {
	if _, err := ReadFile("fonts/a.ttf", ""); err == nil {
		t.Fatalf("没有资源目录时相对路径应报错")
	}
	data, err := ReadFile("builtin:bold", "")
	if err != nil || !bytes.Equal(data, gobold.TTF) {
		t.Fatalf("内置字体读取失败: %v", err)
	}
}
