package lsp

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/zurustar/autoscript/pkg/compiler"
	"github.com/zurustar/autoscript/pkg/compiler/ast"
	"github.com/zurustar/autoscript/pkg/compiler/lexer"
	"github.com/zurustar/autoscript/pkg/compiler/parser"
)

const sourceName = "autoscript"

// CodeUnknownFunction marks calls that resolve to nothing.
const CodeUnknownFunction = "UnknownFunction"

// lines splits text the way positions count lines.
type lines []string

func splitLines(text string) lines {
	return strings.Split(text, "\n")
}

// position converts a 1-based line and byte column to an LSP position,
// whose character offset counts UTF-16 code units.
func (ls lines) position(line1, col1 int) protocol.Position {
	if line1 < 1 {
		line1 = 1
	}
	if col1 < 1 {
		col1 = 1
	}
	if line1 > len(ls) {
		return protocol.Position{Line: protocol.UInteger(line1 - 1)}
	}
	return protocol.Position{
		Line:      protocol.UInteger(line1 - 1),
		Character: protocol.UInteger(utf16Len(ls[line1-1], col1-1)),
	}
}

// byteOffset converts an LSP position to a byte offset within its line.
func (ls lines) byteOffset(pos protocol.Position) (string, int) {
	if int(pos.Line) >= len(ls) {
		return "", 0
	}
	line := ls[pos.Line]
	units := 0
	for i, r := range line {
		if units >= int(pos.Character) {
			return line, i
		}
		units += utf16RuneLen(r)
	}
	return line, len(line)
}

// utf16Len counts the UTF-16 code units in the first n bytes of s.
func utf16Len(s string, n int) int {
	if n > len(s) {
		n = len(s)
	}
	units := 0
	for _, r := range s[:n] {
		units += utf16RuneLen(r)
	}
	return units
}

func utf16RuneLen(r rune) int {
	if r == utf8.RuneError {
		return 1
	}
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// wordLen returns the byte length of the token starting at col1 on line1.
func (ls lines) wordLen(line1, col1 int) int {
	if line1 < 1 || line1 > len(ls) {
		return 1
	}
	line := ls[line1-1]
	start := col1 - 1
	if start < 0 || start >= len(line) {
		return 1
	}
	end := start
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}
	if end == start {
		return 1
	}
	return end - start
}

func isIdentByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func (ls lines) rangeAt(line1, col1, length int) protocol.Range {
	start := ls.position(line1, col1)
	end := ls.position(line1, col1+length)
	if end == start {
		end.Character++
	}
	return protocol.Range{Start: start, End: end}
}

// parse returns the program parsed up to the first syntax error.
func parse(text string) *ast.Program {
	program, _ := parser.New(lexer.New(text)).ParseProgram()
	return program
}

// Analyze returns compile errors and unresolved-call warnings for text.
// natives holds the names the host registers.
func Analyze(text string, natives map[string]bool, opts ...compiler.Option) []protocol.Diagnostic {
	ls := splitLines(text)
	diags := []protocol.Diagnostic{}

	_, err := compiler.Compile(text, opts...)
	for _, ce := range compiler.Errors(err) {
		severity := protocol.DiagnosticSeverityError
		code := protocol.IntegerOrString{Value: string(ce.Kind)}
		diags = append(diags, protocol.Diagnostic{
			Range:    ls.rangeAt(ce.Line, ce.Column, ls.wordLen(ce.Line, ce.Column)),
			Severity: &severity,
			Code:     &code,
			Source:   ptrString(sourceName),
			Message:  ce.Message,
		})
	}

	program := parse(text)
	declared := declaredFunctions(program)
	for _, fn := range program.Functions() {
		if fn.Body == nil {
			continue
		}
		for _, call := range fn.Body.Calls() {
			name := call.Name.Value
			if declared[name] || natives[name] {
				continue
			}
			severity := protocol.DiagnosticSeverityWarning
			code := protocol.IntegerOrString{Value: CodeUnknownFunction}
			diags = append(diags, protocol.Diagnostic{
				Range:    ls.rangeAt(call.Token.Line, call.Token.Column, len(name)),
				Severity: &severity,
				Code:     &code,
				Source:   ptrString(sourceName),
				Message:  fmt.Sprintf("%s is neither a declared function nor a known native", name),
			})
		}
	}
	return diags
}

func declaredFunctions(program *ast.Program) map[string]bool {
	declared := make(map[string]bool)
	for _, fn := range program.Functions() {
		if fn.Name != nil {
			declared[fn.Name.Value] = true
		}
	}
	return declared
}

// Symbols returns one Function symbol per fn declaration.
func Symbols(text string) []protocol.DocumentSymbol {
	ls := splitLines(text)
	symbols := []protocol.DocumentSymbol{}
	for _, fn := range parse(text).Functions() {
		if fn.Name == nil || fn.Body == nil {
			continue
		}
		calls := len(fn.Body.Calls())
		detail := fmt.Sprintf("%d calls", calls)
		if calls == 1 {
			detail = "1 call"
		}
		name := fn.Name.Token
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:   fn.Name.Value,
			Detail: &detail,
			Kind:   protocol.SymbolKindFunction,
			Range: protocol.Range{
				Start: ls.position(fn.Token.Line, fn.Token.Column),
				End:   ls.position(fn.Body.End.Line, fn.Body.End.Column+1),
			},
			SelectionRange: ls.rangeAt(name.Line, name.Column, len(fn.Name.Value)),
		})
	}
	return symbols
}

// Complete returns the natives, declared functions and keywords starting
// with the identifier fragment before pos.
func Complete(text string, pos protocol.Position, natives []string) []protocol.CompletionItem {
	ls := splitLines(text)
	prefix := extractPrefix(ls, pos)

	type candidate struct {
		label  string
		kind   protocol.CompletionItemKind
		detail string
	}
	seen := make(map[string]bool)
	var cands []candidate
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] || !strings.HasPrefix(label, prefix) {
			return
		}
		seen[label] = true
		cands = append(cands, candidate{label, kind, detail})
	}

	for name := range declaredFunctions(parse(text)) {
		add(name, protocol.CompletionItemKindFunction, "fn")
	}
	for _, name := range natives {
		add(name, protocol.CompletionItemKindFunction, "native")
	}
	add("fn", protocol.CompletionItemKindKeyword, "keyword")

	sort.Slice(cands, func(i, j int) bool { return cands[i].label < cands[j].label })
	items := make([]protocol.CompletionItem, len(cands))
	for i, c := range cands {
		kind := c.kind
		items[i] = protocol.CompletionItem{
			Label:      c.label,
			Kind:       &kind,
			Detail:     ptrString(c.detail),
			InsertText: ptrString(c.label),
		}
	}
	return items
}

// extractPrefix returns the identifier fragment before the cursor.
func extractPrefix(ls lines, pos protocol.Position) string {
	line, col := ls.byteOffset(pos)
	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	return line[start:col]
}

func ptrString(s string) *string { return &s }
