// Package dsl 解析 papyrus 布局描述文件：
//
//	profile StoryBook v1 {
//	  meta { title: "${title}" keywords: ["a", "b"] }
//	  resources {
//	    font Bold { src: "builtin:bold" style: "bold" }
//	    color Ink = #1E1E1E
//	    style Title extends Body { font: Bold size: 26pt }
//	  }
//	  page A4 landscape margin 8mm {
//	    layout { wide-ratio: 1.5 }
//	    strings { end-title: "The End" }
//	  }
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	// Color 必须先于 HashComment，且长的分支在前：regexp 取第一个匹配的分支，
	// 写成 {3}|{6} 时 #282828 会被切成 #282 与 828。
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][:=,;{}]`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "Newline", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node of a layout profile.
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"'profile' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' @@* '}'"`
}

// Section is one of meta / resources / page.
type Section struct {
	Meta      *Properties  `parser:"  'meta' @@"`
	Resources *Resources   `parser:"| 'resources' @@"`
	Page      *PageSection `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Resources != nil:
		return "resources"
	case s.Page != nil:
		return "page"
	default:
		return "unknown"
	}
}

// Resources groups font, color and style declarations in source order.
type Resources struct {
	Decls []*Resource `parser:"'{' @@* '}'"`
}

// Resource is a single declaration inside resources.
type Resource struct {
	Font  *FontDecl  `parser:"  @@"`
	Color *ColorDecl `parser:"| @@"`
	Style *StyleDecl `parser:"| @@"`
}

// FontDecl: font Name { src: "..." style: "..." }
type FontDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"'font' @Ident"`
	Props *Properties    `parser:"@@"`
}

// ColorDecl: color Name = #RRGGBB
type ColorDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"'color' @Ident '='"`
	Value string         `parser:"@Color"`
}

// StyleDecl: style Name [extends Base] { ... }
type StyleDecl struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"'style' @Ident"`
	Extends string         `parser:"( 'extends' @Ident )?"`
	Props   *Properties    `parser:"@@"`
}

// PageSection: page <Size> [landscape|portrait] [margin <len>{1,4}] { layout {...} strings {...} }
type PageSection struct {
	Pos         lexer.Position `parser:"" json:"-"`
	Size        string         `parser:"'page' @Ident"`
	Orientation string         `parser:"@( 'landscape' | 'portrait' )?"`
	Margin      []string       `parser:"( 'margin' @Number+ )?"`
	Blocks      []*PageBlock   `parser:"'{' @@* '}'"`
}

// PageBlock is a layout or strings block inside page.
type PageBlock struct {
	Layout  *Properties `parser:"  'layout' @@"`
	Strings *Properties `parser:"| 'strings' @@"`
}

// Properties is a `{ key: value ... }` block. Entries may be separated by newlines or ';'.
type Properties struct {
	Entries []*Property `parser:"'{' ( @@ ';'? )* '}'"`
}

// Property is a single key: value pair.
type Property struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"@@"`
}

// Value is a scalar or a list.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
	List   *List          `parser:"| @@"`
}

// List captures `[ a, b ]`; commas are optional.
type List struct {
	Values []*Value `parser:"'[' ( @@ ','? )* ']'"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
