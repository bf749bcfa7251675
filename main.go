package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/storypress/book"
	"github.com/ByLCY/storypress/config"
	"github.com/ByLCY/storypress/imageloader"
	"github.com/ByLCY/storypress/layout"
	"github.com/ByLCY/storypress/logger"
	"github.com/ByLCY/storypress/profile"
	"github.com/ByLCY/storypress/renderer"
	canvasrenderer "github.com/ByLCY/storypress/renderer/canvas"
	fpdfrenderer "github.com/ByLCY/storypress/renderer/fpdf"
	"github.com/ByLCY/storypress/renderer/preview"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:     "storypress",
		Usage:    "把故事数据排版为横向 A4 绘本 PDF",
		Version:  version,
		Commands: []*cli.Command{renderCommand()},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "渲染一个或多个故事 JSON 文件",
		ArgsUsage: "story.json...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML 配置文件"},
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Usage: "papyrus 布局描述文件，缺省使用内置横向 A4"},
			&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: "canvas | fpdf | preview"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "输出目录"},
			&cli.StringFlag{Name: "debug", Usage: "布局调试 JSON 输出目录"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: "debug | info | warn | error | quiet"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "同时渲染的文件数"},
		},
		Action: renderAction,
	}
}

func renderAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowCommandHelp(c, "render")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.NewConsole(cfg.Level())

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return run(ctx, cfg, c.Args().Slice(), log)
}

// loadConfig 读取配置文件，并用命令行参数覆盖。
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("读取配置 %s 失败: %w", path, err)
		}
		cfg = loaded
	}
	if c.IsSet("profile") {
		cfg.Profile = c.String("profile")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("out") {
		cfg.OutDir = c.String("out")
	}
	if c.IsSet("debug") {
		cfg.DebugDir = c.String("debug")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	return cfg, cfg.Validate()
}

// run 并发渲染多个文件；单个文件失败不影响其他文件，最后汇总报错。
func run(ctx context.Context, cfg config.Config, inputs []string, log logger.Logger) error {
	opts, err := bookOptions(cfg, log)
	if err != nil {
		return err
	}

	var done, failed atomic.Int32
	names := &outputNames{used: map[string]bool{}}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, input := range inputs {
		g.Go(func() error {
			if err := renderFile(ctx, input, cfg, opts, names, log); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				log.Error("Failed to render %s: %v", input, err)
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Rendered %d of %d files", done.Load(), len(inputs))
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d 个文件渲染失败", n)
	}
	return nil
}

func bookOptions(cfg config.Config, log logger.Logger) (book.Options, error) {
	prof := profile.Default()
	baseDir := ""
	if cfg.Profile != "" {
		p, err := profile.Load(cfg.Profile)
		if err != nil {
			return book.Options{}, err
		}
		prof = p
		baseDir = filepath.Dir(cfg.Profile)
	}
	factory, err := surfaceFactory(cfg, baseDir)
	if err != nil {
		return book.Options{}, err
	}
	return book.Options{
		Loader:     imageloader.New(cfg.LoaderOptions()),
		Profile:    prof,
		NewSurface: factory,
		Logger:     log,
	}, nil
}

// surfaceFactory 按后端名称创建渲染面工厂；baseDir 用于解析相对字体路径。
func surfaceFactory(cfg config.Config, baseDir string) (renderer.Factory, error) {
	switch cfg.Backend {
	case config.BackendCanvas:
		return canvasrenderer.Factory(canvasrenderer.Options{BaseDir: baseDir}), nil
	case config.BackendFPDF:
		return fpdfrenderer.Factory(fpdfrenderer.Options{BaseDir: baseDir}), nil
	case config.BackendPreview:
		return preview.Factory(preview.Options{Scale: cfg.PreviewScale, BaseDir: baseDir}), nil
	default:
		return nil, fmt.Errorf("未知的渲染后端 %q", cfg.Backend)
	}
}

func renderFile(ctx context.Context, input string, cfg config.Config, opts book.Options, names *outputNames, log logger.Logger) error {
	log.Info("Rendering %s", input)
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("无法读取 %s: %w", input, err)
	}
	doc, err := book.RenderJSON(ctx, data, opts)
	if err != nil {
		return err
	}

	output := filepath.Join(cfg.OutDir, names.claim(input, outputName(doc.FileName(), cfg.Backend)))
	if err := doc.Save(output); err != nil {
		return err
	}
	log.Info("Saved %s (%d pages, %d bytes)", output, len(doc.Pages()), len(doc.Bytes()))

	if cfg.DebugDir != "" {
		debugPath := filepath.Join(cfg.DebugDir, strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))+".layout.json")
		if err := writeDebug(doc.Result(), debugPath); err != nil {
			return err
		}
		log.Info("Wrote layout debug JSON to %s", debugPath)
	}
	return nil
}

// outputNames 保证同一批次内输出文件名不重复。没有 storyId 和角色名的故事
// 都叫 comic-story.pdf，后到的文件加上输入文件名作前缀。
type outputNames struct {
	mu   sync.Mutex
	used map[string]bool
}

func (n *outputNames) claim(input, name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + "-" + name
	candidate := base
	for i := 2; n.used[candidate]; i++ {
		ext := filepath.Ext(base)
		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), i, ext)
	}
	n.used[candidate] = true
	return candidate
}

// outputName 预览后端输出 PNG。
func outputName(name, backend string) string {
	if backend == config.BackendPreview {
		return strings.TrimSuffix(name, ".pdf") + ".png"
	}
	return name
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
