// Package logger 提供分级、可按组件前缀的日志接口及控制台实现。
package logger

// Level 表示日志级别。
type Level int

const (
	// LevelDebug 用于组件内部细节，例如逐页进度。
	LevelDebug Level = iota
	// LevelInfo 用于整体流程进度。
	LevelInfo
	// LevelWarn 用于可恢复的问题，例如单张图片加载失败。
	LevelWarn
	// LevelError 用于导致渲染中止的问题。
	LevelError
	// LevelQuiet 关闭所有输出。
	LevelQuiet
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLevel 解析级别名称，无法识别时返回 LevelInfo。
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "quiet":
		return LevelQuiet
	default:
		return LevelInfo
	}
}

// Logger 抽象日志输出。msg 是可翻译的消息键，args 为格式化参数。
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	// WithComponent 返回带组件名前缀的 Logger。
	WithComponent(component string) Logger
}

type nop struct{}

// Nop 返回丢弃所有消息的 Logger。
func Nop() Logger { return nop{} }

func (nop) Debug(string, ...interface{})  {}
func (nop) Info(string, ...interface{})   {}
func (nop) Warn(string, ...interface{})   {}
func (nop) Error(string, ...interface{})  {}
func (n nop) WithComponent(string) Logger { return n }
