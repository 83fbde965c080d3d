package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// BlockType names a top-level document block.
type BlockType string

const (
	BlockHeading     BlockType = "heading"
	BlockParagraph   BlockType = "paragraph"
	BlockCode        BlockType = "code"
	BlockQuote       BlockType = "quote"
	BlockBulletList  BlockType = "bullet_list"
	BlockOrderedList BlockType = "ordered_list"
	BlockRule        BlockType = "rule"
	BlockHTML        BlockType = "html"
	BlockReferences  BlockType = "references"
)

// Block is one top-level element of a structured document. Text holds inline
// markdown verbatim.
type Block struct {
	Type  BlockType `json:"type"`
	Level int       `json:"level,omitempty"`
	Text  string    `json:"text,omitempty"`
	Lang  string    `json:"lang,omitempty"`
	Items []string  `json:"items,omitempty"`
	Start int       `json:"start,omitempty"`
}

// docType tags structured-document JSON.
const docType = "doc"

type structuredDoc struct {
	Type    string  `json:"type"`
	Content []Block `json:"content"`
}

// ParseStructured decodes structured-document JSON.
func ParseStructured(content string) ([]Block, error) {
	var doc structuredDoc
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Type != docType {
		return nil, fmt.Errorf("not a structured document: type %q", doc.Type)
	}
	return doc.Content, nil
}

// EncodeStructured serializes blocks as structured-document JSON.
func EncodeStructured(blocks []Block) string {
	if blocks == nil {
		blocks = []Block{}
	}
	// Blocks hold only strings and ints, so encoding cannot fail.
	data, _ := json.Marshal(structuredDoc{Type: docType, Content: blocks})
	return string(data)
}

var markdown = goldmark.New()

// ParseMarkdown splits markdown source into top-level blocks. Lists and
// quotes keep their inner markdown so nested content survives a round trip.
// Link reference definitions are collected into a trailing references block.
func ParseMarkdown(source string) []Block {
	src := []byte(source)
	ctx := parser.NewContext()
	root := markdown.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))
	sl := newSourceLines(src)

	var (
		blocks  []Block
		covered [][2]int
	)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			blocks = append(blocks, Block{Type: BlockHeading, Level: node.Level, Text: lines(node, src)})
		case *ast.Paragraph:
			blocks = append(blocks, Block{Type: BlockParagraph, Text: lines(node, src)})
		case *ast.FencedCodeBlock:
			blocks = append(blocks, Block{Type: BlockCode, Lang: string(node.Language(src)), Text: rawLines(node, src)})
		case *ast.CodeBlock:
			blocks = append(blocks, Block{Type: BlockCode, Text: rawLines(node, src)})
		case *ast.Blockquote:
			first, last, ok := sl.span(node)
			if !ok {
				blocks = append(blocks, Block{Type: BlockQuote})
				continue
			}
			covered = append(covered, [2]int{first, last})
			blocks = append(blocks, Block{Type: BlockQuote, Text: sl.quoteText(first, last)})
		case *ast.List:
			b := Block{Type: BlockBulletList}
			if node.IsOrdered() {
				b.Type = BlockOrderedList
				b.Start = node.Start
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				first, last, ok := sl.span(item)
				if !ok {
					b.Items = append(b.Items, "")
					continue
				}
				covered = append(covered, [2]int{first, last})
				b.Items = append(b.Items, sl.itemText(first, last))
			}
			blocks = append(blocks, b)
		case *ast.ThematicBreak:
			blocks = append(blocks, Block{Type: BlockRule})
		case *ast.HTMLBlock:
			body := rawLines(node, src)
			if node.HasClosure() {
				body += "\n" + strings.TrimRight(string(node.ClosureLine.Value(src)), "\n")
			}
			blocks = append(blocks, Block{Type: BlockHTML, Text: body})
		}
	}

	if defs := sl.definitions(ctx.References(), covered); defs != "" {
		blocks = append(blocks, Block{Type: BlockReferences, Text: defs})
	}
	return blocks
}

// lines joins a block's source lines with their line breaks normalized.
func lines(n ast.Node, src []byte) string {
	segs := n.Lines()
	parts := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// rawLines keeps indentation, for code.
func rawLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// sourceLines indexes the start offset of every line of a markdown source.
type sourceLines struct {
	src    []byte
	starts []int
}

func newSourceLines(src []byte) *sourceLines {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return &sourceLines{src: src, starts: starts}
}

func (s *sourceLines) count() int {
	return len(s.starts)
}

// lineAt returns the index of the line holding the byte at offset.
func (s *sourceLines) lineAt(offset int) int {
	return sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > offset }) - 1
}

func (s *sourceLines) line(i int) string {
	end := len(s.src)
	if i+1 < len(s.starts) {
		end = s.starts[i+1]
	}
	return strings.TrimRight(string(s.src[s.starts[i]:end]), "\r\n")
}

// span returns the first and last source lines covered by n and its
// descendants. ok is false when n holds no source text.
func (s *sourceLines) span(n ast.Node) (first, last int, ok bool) {
	first, last = -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		segs := c.Lines()
		if segs.Len() == 0 {
			return ast.WalkContinue, nil
		}
		a := s.lineAt(segs.At(0).Start)
		stop := segs.At(segs.Len() - 1).Stop
		if stop > segs.At(segs.Len()-1).Start {
			stop--
		}
		b := s.lineAt(stop)

		switch node := c.(type) {
		case *ast.FencedCodeBlock:
			// Fence lines are not part of the content segments.
			if a > 0 {
				a--
			}
			if b+1 < s.count() && isFence(s.line(b+1)) {
				b++
			}
		case *ast.HTMLBlock:
			if node.HasClosure() {
				b = s.lineAt(node.ClosureLine.Start)
			}
		}

		if first < 0 || a < first {
			first = a
		}
		if b > last {
			last = b
		}
		return ast.WalkContinue, nil
	})
	return first, last, first >= 0
}

func isFence(line string) bool {
	t := strings.TrimLeft(line, " \t>")
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// itemText returns the markdown of a list item spanning lines first..last with
// the item marker and the item's content indentation removed.
func (s *sourceLines) itemText(first, last int) string {
	head := s.line(first)
	width := markerWidth(head)
	out := []string{strings.TrimRight(head[width:], " ")}
	for i := first + 1; i <= last; i++ {
		out = append(out, dedent(s.line(i), width))
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// quoteText returns the markdown inside a blockquote with the quote markers
// removed.
func (s *sourceLines) quoteText(first, last int) string {
	out := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, stripQuote(s.line(i)))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// definitions renders link reference definitions in source order, skipping
// those already kept inside a list or quote.
func (s *sourceLines) definitions(refs []parser.Reference, covered [][2]int) string {
	type def struct {
		pos  int
		text string
	}
	var defs []def
	for _, ref := range refs {
		pos := bytes.Index(s.src, []byte("["+string(ref.Label())+"]:"))
		if pos >= 0 && within(s.lineAt(pos), covered) {
			continue
		}
		defs = append(defs, def{pos: pos, text: formatReference(ref)})
	}
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].pos != defs[j].pos {
			return defs[i].pos < defs[j].pos
		}
		return defs[i].text < defs[j].text
	})

	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.text
	}
	return strings.Join(out, "\n")
}

func within(line int, ranges [][2]int) bool {
	for _, r := range ranges {
		if line >= r[0] && line <= r[1] {
			return true
		}
	}
	return false
}

func formatReference(ref parser.Reference) string {
	dest := string(ref.Destination())
	if dest == "" || strings.ContainsAny(dest, " \t") {
		dest = "<" + dest + ">"
	}
	line := "[" + string(ref.Label()) + "]: " + dest
	if title := ref.Title(); len(title) > 0 {
		line += ` "` + strings.ReplaceAll(string(title), `"`, `\"`) + `"`
	}
	return line
}

// markerWidth is the column where a list item's content starts on its first
// line. A line without a marker yields its indentation.
func markerWidth(line string) int {
	n := len(line) - len(strings.TrimLeft(line, " "))
	rest := line[n:]

	marker := 0
	switch {
	case strings.HasPrefix(rest, "-"), strings.HasPrefix(rest, "+"), strings.HasPrefix(rest, "*"):
		marker = 1
	default:
		digits := 0
		for digits < len(rest) && digits < 9 && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits > 0 && digits < len(rest) && (rest[digits] == '.' || rest[digits] == ')') {
			marker = digits + 1
		}
	}
	if marker == 0 {
		return n
	}

	after := rest[marker:]
	spaces := len(after) - len(strings.TrimLeft(after, " "))
	if spaces == 0 || spaces > 4 {
		spaces = 1
	}
	if w := n + marker + spaces; w < len(line) {
		return w
	}
	return len(line)
}

// dedent strips up to width leading spaces.
func dedent(line string, width int) string {
	i := 0
	for i < width && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

func stripQuote(line string) string {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 || !strings.HasPrefix(t, ">") {
		return line
	}
	return strings.TrimPrefix(t[1:], " ")
}

// RenderMarkdown serializes blocks back to markdown.
func RenderMarkdown(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case BlockHeading:
			level := b.Level
			if level < 1 {
				level = 1
			}
			if level > 6 {
				level = 6
			}
			parts = append(parts, strings.Repeat("#", level)+" "+b.Text)
		case BlockCode:
			parts = append(parts, "```"+b.Lang+"\n"+b.Text+"\n```")
		case BlockQuote:
			quoted := strings.Split(b.Text, "\n")
			for i, line := range quoted {
				if line == "" {
					quoted[i] = ">"
				} else {
					quoted[i] = "> " + line
				}
			}
			parts = append(parts, strings.Join(quoted, "\n"))
		case BlockBulletList:
			items := make([]string, len(b.Items))
			for i, item := range b.Items {
				items[i] = indentItem("- ", item)
			}
			parts = append(parts, strings.Join(items, "\n"))
		case BlockOrderedList:
			start := b.Start
			if start == 0 {
				start = 1
			}
			items := make([]string, len(b.Items))
			for i, item := range b.Items {
				items[i] = indentItem(fmt.Sprintf("%d. ", start+i), item)
			}
			parts = append(parts, strings.Join(items, "\n"))
		case BlockRule:
			parts = append(parts, "---")
		default:
			parts = append(parts, b.Text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// indentItem prefixes an item's first line with marker and indents the rest
// to the item's content column.
func indentItem(marker, item string) string {
	pad := strings.Repeat(" ", len(marker))
	parts := strings.Split(item, "\n")
	for i, line := range parts {
		switch {
		case i == 0:
			parts[i] = strings.TrimRight(marker+line, " ")
		case line != "":
			parts[i] = pad + line
		}
	}
	return strings.Join(parts, "\n")
}

// ToMarkdown renders stored content as markdown. Content that is not a
// structured document is returned unchanged.
func ToMarkdown(content string) string {
	blocks, err := ParseStructured(content)
	if err != nil {
		return content
	}
	return RenderMarkdown(blocks)
}
