package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/autoscript/pkg/compiler/ast"
	"github.com/zurustar/autoscript/pkg/compiler/lexer"
	"github.com/zurustar/autoscript/pkg/opcode"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	return program
}

func parseError(t *testing.T, input string) *ParserError {
	t.Helper()
	p := New(lexer.New(input))
	_, errs := p.ParseProgram()
	if len(errs) == 0 {
		t.Fatalf("expected parse error for %q", input)
	}
	var pe *ParserError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("expected *ParserError, got %T", errs[0])
	}
	return pe
}

func TestParseProgram_FunctionDeclarations(t *testing.T) {
	input := `
	// entry point
	fn run() {
		helper();
		wait_frames(30);
	}

	fn helper() {
		// clicks the start button
		ui_click_element_with_name("Start");
	}
	`

	program := parse(t, input)

	if len(program.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(program.Items))
	}
	if _, ok := program.Items[0].(*ast.CommentStatement); !ok {
		t.Errorf("item 0 should be a comment, got %T", program.Items[0])
	}

	fns := program.Functions()
	if len(fns) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(fns))
	}
	if fns[0].Name.Value != "run" || fns[1].Name.Value != "helper" {
		t.Errorf("function names = %s, %s", fns[0].Name.Value, fns[1].Name.Value)
	}

	calls := fns[0].Body.Calls()
	if len(calls) != 2 {
		t.Fatalf("run should have 2 calls, got %d", len(calls))
	}
	if calls[0].Name.Value != "helper" || len(calls[0].Arguments) != 0 {
		t.Errorf("unexpected first call: %s", calls[0])
	}
	if n, ok := calls[1].Arguments[0].Value.AsInt64(); !ok || n != 30 {
		t.Errorf("wait_frames argument = %v", calls[1].Arguments[0].Value)
	}

	if len(fns[1].Body.Statements) != 2 {
		t.Errorf("helper should keep its comment statement, got %d statements", len(fns[1].Body.Statements))
	}
	if s, ok := fns[1].Body.Calls()[0].Arguments[0].Value.AsString(); !ok || s != "Start" {
		t.Errorf("string argument = %v", fns[1].Body.Calls()[0].Arguments[0].Value)
	}
}

func TestParseProgram_Arguments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []opcode.Literal
	}{
		{"no arguments", `fn run(){ quit_app(); }`, nil},
		{"whitespace separated", `fn run(){ ui_click_pos(10 20); }`,
			[]opcode.Literal{opcode.Int64Literal(10), opcode.Int64Literal(20)}},
		{"comma separated", `fn run(){ ui_click_pos(10, 20); }`,
			[]opcode.Literal{opcode.Int64Literal(10), opcode.Int64Literal(20)}},
		{"signed integers", `fn run(){ f(-5 +7); }`,
			[]opcode.Literal{opcode.Int64Literal(-5), opcode.Int64Literal(7)}},
		{"mixed kinds", `fn run(){ f("a" 1); }`,
			[]opcode.Literal{opcode.StringLiteral("a"), opcode.Int64Literal(1)}},
		{"empty string", `fn run(){ debug(""); }`,
			[]opcode.Literal{opcode.StringLiteral("")}},
		{"max int128", `fn run(){ f(170141183460469231731687303715884105727); }`,
			[]opcode.Literal{opcode.IntLiteral(opcode.MaxInt128)}},
		{"min int128", `fn run(){ f(-170141183460469231731687303715884105728); }`,
			[]opcode.Literal{opcode.IntLiteral(opcode.MinInt128)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := parse(t, tt.input)
			call := program.Functions()[0].Body.Calls()[0]
			if len(call.Arguments) != len(tt.want) {
				t.Fatalf("got %d arguments, want %d", len(call.Arguments), len(tt.want))
			}
			for i, w := range tt.want {
				if !call.Arguments[i].Value.Equal(w) {
					t.Errorf("argument %d = %s, want %s", i, call.Arguments[i].Value, w)
				}
			}
		})
	}
}

func TestParseProgram_EmptyInputs(t *testing.T) {
	tests := []string{"", "   \n\t", "// only a comment", "fn run() {}"}
	for _, input := range tests {
		parse(t, input)
	}
}

func TestParseProgram_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		line      int
		column    int
		remainder string
		contains  string
	}{
		{"trailing garbage", "fn run() {} junk", 1, 13, "junk", "expected function declaration"},
		{"missing semicolon", "fn run() { a() }", 1, 16, "}", "expected ';'"},
		{"digit in identifier", "fn run() { wait2(); }", 1, 16, "2(); }", "expected '('"},
		{"parameters not allowed", "fn run(x) {}", 1, 8, "x) {}", "no parameters"},
		{"unterminated block", "fn run() { a();", 1, 16, "", "unterminated block"},
		{"unterminated string", "fn run() { a(\"oops); }", 1, 14, "\"oops); }", "unterminated string"},
		{"illegal character", "fn run() { a(1.5); }", 1, 15, ".5); }", "illegal character"},
		{"integer overflow", "fn run() { a(170141183460469231731687303715884105728); }", 1, 14, "170141183460469231731687303715884105728); }", "out of the 128-bit"},
		{"leading comma", "fn run() { a(, 1); }", 1, 14, ", 1); }", "','"},
		{"trailing comma", "fn run() { a(1,); }", 1, 15, ",); }", "','"},
		{"call outside function", "a();", 1, 1, "a();", "expected function declaration"},
		{"fn as callee", "fn run() { fn(); }", 1, 12, "fn(); }", "expected call statement"},
		{"nested block", "fn run() { { } }", 1, 12, "{ } }", "expected call statement"},
		{"error on later line", "fn run() {\n  a();\n  b(;\n}", 3, 5, ";\n}", "expected literal argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := parseError(t, tt.input)
			if pe.Line != tt.line || pe.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d (%s)", pe.Line, pe.Column, tt.line, tt.column, pe.Message)
			}
			if pe.Remainder != tt.remainder {
				t.Errorf("remainder = %q, want %q", pe.Remainder, tt.remainder)
			}
			if !strings.Contains(pe.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", pe.Error(), tt.contains)
			}
		})
	}
}

func TestParseProgram_PartialProgramOnError(t *testing.T) {
	p := New(lexer.New("fn a() { x(); }\nfn b() { y( }"))
	program, errs := p.ParseProgram()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(errs))
	}
	if fns := program.Functions(); len(fns) != 1 || fns[0].Name.Value != "a" {
		t.Errorf("expected the declarations before the error to be kept, got %v", program.Items)
	}
}

func TestParserError_TruncatesRemainder(t *testing.T) {
	input := "fn run() {} " + strings.Repeat("x", 100)
	pe := parseError(t, input)
	msg := pe.Error()
	if !strings.Contains(msg, "...") {
		t.Errorf("long remainder should be truncated in %q", msg)
	}
	if len(pe.Remainder) != 100 {
		t.Errorf("Remainder field keeps the full input, got %d bytes", len(pe.Remainder))
	}
}
