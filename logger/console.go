package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// Console 将日志写到标准输出/标准错误，终端下自动着色。
type Console struct {
	level     Level
	component string
	color     bool
	out       io.Writer
	errOut    io.Writer
	mu        *sync.Mutex
}

// NewConsole 创建控制台 Logger。
func NewConsole(level Level) *Console {
	return &Console{
		level:  level,
		color:  isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		out:    os.Stdout,
		errOut: os.Stderr,
		mu:     &sync.Mutex{},
	}
}

// NewWriter 创建写到指定 Writer 的 Logger，不着色。主要用于测试。
func NewWriter(level Level, w io.Writer) *Console {
	return &Console{level: level, out: w, errOut: w, mu: &sync.Mutex{}}
}

func (l *Console) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }
func (l *Console) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args...) }
func (l *Console) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args...) }
func (l *Console) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// WithComponent 实现 Logger。
func (l *Console) WithComponent(component string) Logger {
	c := *l
	c.component = component
	return &c
}

func (l *Console) log(level Level, msg string, args ...interface{}) {
	if level < l.level || l.level == LevelQuiet {
		return
	}
	translated := l10n.F(msg, args...)

	var output string
	switch {
	case l.component != "" && l.color:
		output = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, translated)
	case l.component != "":
		output = fmt.Sprintf("[%s] %s", l.component, translated)
	default:
		output = translated
	}

	if l.color {
		switch level {
		case LevelDebug:
			output = colorGray + output + colorReset
		case LevelWarn:
			output = colorYellow + output + colorReset
		case LevelError:
			output = colorRed + output + colorReset
		}
	}

	w := l.out
	if level >= LevelWarn {
		w = l.errOut
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, output)
}
