package compiler

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/text/encoding/japanese"

	"github.com/zurustar/autoscript/pkg/opcode"
	"github.com/zurustar/autoscript/pkg/script"
)

func TestCompile_Success(t *testing.T) {
	source := `// smoke test
fn run() {
	wait_frames(30);
	open_menu();
	queue_screenshot("menu");
	quit_app();
}

fn open_menu() {
	ui_click_element_with_name("Options");
	wait_frames(10);
}
`
	s, err := Compile(source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(s.Labels(), ","); got != "open_menu,run" {
		t.Errorf("Labels() = %s", got)
	}
	if !s.MatchesSource([]byte(source)) {
		t.Error("compiled script should carry the source hash")
	}
	if last, _ := s.OpcodeAt(s.Len() - 1); last.Cmd != opcode.OpEnd {
		t.Errorf("last instruction = %s", last)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		opts     []Option
		sentinel error
		kind     Kind
		phase    string
		line     int
		column   int
	}{
		{"構文エラー", "fn run() { a() }", nil, ErrParse, KindParseError, PhaseParser, 1, 16},
		{"末尾のゴミ", "fn run() {}\n}", nil, ErrParse, KindParseError, PhaseParser, 2, 1},
		{"ラベル重複", "fn run() {}\nfn run() {}", nil, ErrDuplicateLabel, KindDuplicateLabel, PhaseCompiler, 2, 4},
		{"引数が多すぎる", "fn run() {\n  ui_click_pos(1 2);\n}", []Option{WithMaxArgs(1)}, ErrUnsupportedArity, KindUnsupportedArity, PhaseCompiler, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.source, tt.opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if s != nil {
				t.Error("no script may be returned on error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}

			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CompileError, got %T", err)
			}
			if ce.Kind != tt.kind || ce.Phase != tt.phase {
				t.Errorf("Kind/Phase = %s/%s, want %s/%s", ce.Kind, ce.Phase, tt.kind, tt.phase)
			}
			if ce.Line != tt.line || ce.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", ce.Line, ce.Column, tt.line, tt.column)
			}
			if !strings.Contains(ce.Context, "^") {
				t.Errorf("context should carry a pointer:\n%s", ce.Context)
			}
		})
	}
}

func TestCompile_ParseErrorRemainder(t *testing.T) {
	_, err := Compile("fn run() { wait_frames(10) }")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CompileError, got %v", err)
	}
	if ce.Remainder != "}" {
		t.Errorf("Remainder = %q", ce.Remainder)
	}
	if !strings.Contains(ce.Message, `remaining input: "}"`) {
		t.Errorf("Message = %q", ce.Message)
	}
}

func TestCompile_MultipleCompilerErrors(t *testing.T) {
	_, err := Compile("fn a() { f(1 2); }\nfn a() {}", WithMaxArgs(1))
	errs := Errors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), err)
	}
	if !errors.Is(err, ErrUnsupportedArity) || !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("both kinds should be reported: %v", err)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	source := `fn run() { a(1 "x"); b(); a(1 "x"); }
fn b() { debug("b"); }`

	first, err := Compile(source)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compile(source)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Error("compiling the same source twice should give equal scripts")
	}

	a, _ := script.MarshalImage(first)
	b, _ := script.MarshalImage(second)
	if string(a) != string(b) {
		t.Error("images of equal scripts should be byte-identical")
	}
}

func TestCompileFile(t *testing.T) {
	const text = "// 日本語のコメント\nfn run() { debug(\"こんにちは\"); }\n"
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatal(err)
	}

	fsys := fstest.MapFS{
		"scripts/Hello.AUTO":  {Data: sjis},
		"scripts/broken.auto": {Data: []byte("fn run( {}")},
	}

	s, err := CompileFile(fsys, "scripts/hello.auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, _ := s.OpcodeAt(3)
	if msg, _ := s.LiteralString(op.Operand); msg != "こんにちは" {
		t.Errorf("argument = %q", msg)
	}
	if !s.MatchesSource([]byte(text)) {
		t.Error("source hash should be computed over the decoded text")
	}

	_, err = CompileFile(fsys, "scripts/broken.auto")
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "broken.auto: ") {
		t.Errorf("error should name the file: %v", err)
	}

	if _, err := CompileFile(fsys, "scripts/missing.auto"); err == nil {
		t.Error("expected error for a missing file")
	}
}
