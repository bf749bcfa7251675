package layout

import (
	"strings"
	"testing"
)

// monoMeasurer 每个字符宽 1mm，便于手算。
type monoMeasurer struct{}

func (monoMeasurer) TextWidth(text string, _ FontResource, _ float64) float64 {
	return float64(len([]rune(text)))
}

func TestWrapGreedy(t *testing.T) {
	f := NewTextFlow(monoMeasurer{}, 2)
	lines := f.Wrap("the quick brown fox jumps", 10, FontResource{}, 4)
	want := []string{"the quick", "brown fox", "jumps"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("折行结果期望 %q，实际 %q", want, lines)
	}
}

func TestWrapLongWordAlone(t *testing.T) {
	f := NewTextFlow(monoMeasurer{}, 2)
	lines := f.Wrap("a supercalifragilistic b", 6, FontResource{}, 4)
	if len(lines) != 3 || lines[1] != "supercalifragilistic" {
		t.Fatalf("超长单词应独占一行: %q", lines)
	}
}

func TestWrapEmpty(t *testing.T) {
	f := NewTextFlow(monoMeasurer{}, 2)
	if lines := f.Wrap("   \n\t ", 10, FontResource{}, 4); len(lines) != 0 {
		t.Fatalf("空白文本不应产生行: %q", lines)
	}
}

func TestWrapIdempotent(t *testing.T) {
	texts := []string{
		"Once upon a time, in a land far far away, a small dragon learned to read.",
		"short",
		"Averyveryverylongwordthatcannotfit next to some small ones and  double  spaces\nand newlines",
	}
	for _, m := range []Measurer{monoMeasurer{}, ApproxMeasurer{}} {
		f := NewTextFlow(m, 2)
		for _, text := range texts {
			for _, width := range []float64{5, 12, 30, 80} {
				first := f.Wrap(text, width, FontResource{}, 4)
				for _, sep := range []string{" ", "\n"} {
					second := f.Wrap(strings.Join(first, sep), width, FontResource{}, 4)
					if strings.Join(first, "|") != strings.Join(second, "|") {
						t.Fatalf("width=%g sep=%q 二次折行结果不同:\n%q\n%q", width, sep, first, second)
					}
				}
			}
		}
	}
}

func TestVerticalCenter(t *testing.T) {
	f := NewTextFlow(monoMeasurer{}, 2)

	start, over := f.VerticalCenter(4, 5, 100)
	if start != 40 || over {
		t.Fatalf("期望居中偏移 40 且未溢出，实际 %g %v", start, over)
	}

	// 内容高于框：钳制到最小留白并报告溢出
	start, over = f.VerticalCenter(30, 5, 100)
	if start != 2 || !over {
		t.Fatalf("溢出时期望偏移 2 且 overflowed=true，实际 %g %v", start, over)
	}

	// 刚好塞满：居中偏移为 0，被钳制后越过底部
	start, over = f.VerticalCenter(20, 5, 100)
	if start != 2 || !over {
		t.Fatalf("塞满时期望偏移 2 且溢出，实际 %g %v", start, over)
	}
}

func TestFlowPositionsBlock(t *testing.T) {
	f := NewTextFlow(monoMeasurer{}, 2)
	style := TextStyle{Size: 4, LineHeight: 5, Align: "center"}
	box := Box{X: 10, Y: 20, Width: 30, Height: 50}
	block := f.Flow("one two three four five six", box, style, 5)
	if block.X != 15 || block.Width != 20 {
		t.Fatalf("内边距未生效: x=%g width=%g", block.X, block.Width)
	}
	if block.Overflowed {
		t.Fatalf("不应溢出")
	}
	wantStart := box.Y + (box.Height-block.Height())/2
	if block.StartY != wantStart {
		t.Fatalf("StartY 期望 %g，实际 %g", wantStart, block.StartY)
	}
	cmds := block.Commands(style)
	if len(cmds) != len(block.Lines) {
		t.Fatalf("每行应产生一条指令")
	}
	for i, cmd := range cmds {
		if cmd.Op != OpText || cmd.Text.Align != "center" {
			t.Fatalf("第 %d 条指令错误: %+v", i, cmd)
		}
		if cmd.Y != block.StartY+float64(i)*5 {
			t.Fatalf("第 %d 行 y 错误: %g", i, cmd.Y)
		}
	}
}
