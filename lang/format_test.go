package lang

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func format(t *testing.T, src string, indent int) string {
	t.Helper()

	ast, err := ParseString(t.Context(), src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	var buf bytes.Buffer
	if err := ast.Format(t.Context(), &buf, indent); err != nil {
		t.Fatalf("format %q: %v", src, err)
	}

	return buf.String()
}

func TestFormat_Compact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"var", "var   x ;", "var x;"},
		{"var init", "var x=1;", "var x = 1;"},
		{"precedence", "x = 1+2*3;", "x = 1 + 2 * 3;"},
		{"grouping", "x = (1+2)*3;", "x = (1 + 2) * 3;"},
		{"left assoc", "x = a-(b-c);", "x = a - (b - c);"},
		{"nested negation", "x = - -y;", "x = -(-y);"},
		{"real", "x = 1.0;", "x = 1.0;"},
		{"string", `x = 'say "hi"\n';`, `x = "say \"hi\"\n";`},
		{"typeof", "x = typeof y;", "x = typeof y;"},
		{"new without args", "x = new Foo;", "x = new Foo();"},
		{"new member", "x = new a.B(1, 2);", "x = new a.B(1, 2);"},
		{"object", "var o = {a: 1, 'b c': [1,2]};", `var o = { a: 1, "b c": [1, 2] };`},
		{"leading object", "({a: 1}).a;", "({ a: 1 }.a);"},
		{"function", "function f(a,b) { return a+b; }", "function f(a, b) { return a + b; }"},
		{"hoisted function first", "x = f(); function f() {}", "function f() {} x = f();"},
		{"if else", "if (a) b = 1; else { b = 2; }", "if (a) { b = 1; } else { b = 2; }"},
		{"while", "while (i<3) { i++; }", "while (i < 3) { i++; }"},
		{"for", "for (var i=0; i<3; i++) s = s+i;", "for (var i = 0; i < 3; i++) s = s + i;"},
		{"empty for", "for (;;) {}", "for (;;) {}"},
		{"for in", "for (var k in o) print(k);", "for (var k in o) print(k);"},
		{"delete", "delete o.a;", "delete o.a;"},
		{"return", "return;", "return;"},
		{"logic", "x = a || b && !c;", "x = a || b && !c;"},
		{"instanceof", "x = a instanceof B;", "x = a instanceof B;"},
		{"index set", "a[0] = b[1];", "a[0] = b[1];"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format(t, tt.input, 0); got != tt.want+"\n" {
				t.Errorf("format mismatch:\nwant: %q\ngot:  %q", tt.want+"\n", got)
			}
		})
	}
}

func TestFormat_Indented(t *testing.T) {
	input := "function f() { var a = 1; if (a) { return a; } } x = f();"
	want := strings.Join([]string{
		"function f() {",
		"  var a = 1;",
		"  if (a) {",
		"    return a;",
		"  }",
		"}",
		"x = f();",
		"",
	}, "\n")

	if got := format(t, input, 2); got != want {
		t.Errorf("format mismatch:\nwant: %q\ngot:  %q", want, got)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	inputs := []string{
		"var x = 1; x = x + 1;",
		"y = 1; var y;",
		"function add(a, b) { var s = a + b; return s; } r = add(1, 2);",
		"var o = { list: [1, 2.5, 'three'], nested: { ok: true } }; o.list[0] = null;",
		"for (var i = 0; i < 10; i++) { if (i % 2 == 0) continue_ = i; else { odd = i; } }",
		"for (var k in { a: 1 }) { print(k); }",
		"var f = function (x) { return function (y) { return x * y; }; }; r = f(2)(3);",
		`x = 7 \ 2 + -(3 % 2) - !true;`,
		"a.b.c(1)[2].d = new X.Y();",
	}

	for _, input := range inputs {
		for _, indent := range []int{0, 2, 4} {
			once := format(t, input, indent)

			if twice := format(t, once, indent); twice != once {
				t.Errorf("indent %d: formatting is not idempotent:\nonce:  %q\ntwice: %q", indent, once, twice)
			}
		}
	}
}

func TestFormat_PreservesSemantics(t *testing.T) {
	src := "function sq(n) { return n * n; } var total = 0; for (var i = 1; i <= 3; i++) total = total + sq(i);"

	want := New()
	run(t, want, src)

	got := New()
	run(t, got, format(t, src, 2))

	if want.Get("total") != 14 || got.Get("total") != want.Get("total") {
		t.Errorf("expected 14 twice, got %v and %v", want.Get("total"), got.Get("total"))
	}
}

func TestFormat_JSON(t *testing.T) {
	ast, err := ParseString(t.Context(), "var x = 1;")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ast.FormatJSON(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	var tree struct {
		Hoisted  []map[string]any `json:"hoisted"`
		Commands []map[string]any `json:"commands"`
	}

	if err := json.Unmarshal(buf.Bytes(), &tree); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if len(tree.Hoisted) != 1 || tree.Hoisted[0]["node"] != "Var" || tree.Hoisted[0]["name"] != "x" {
		t.Errorf("unexpected hoisted %v", tree.Hoisted)
	}

	if len(tree.Commands) != 1 || tree.Commands[0]["node"] != "SetVariable" {
		t.Fatalf("unexpected commands %v", tree.Commands)
	}

	value, _ := tree.Commands[0]["value"].(map[string]any)
	if value["node"] != "Constant" || value["type"] != "number" || value["value"] != 1.0 {
		t.Errorf("unexpected value %v", value)
	}

	if tree.Commands[0]["pos"] != "1:1" {
		t.Errorf("unexpected position %v", tree.Commands[0]["pos"])
	}

	compact, err := json.Marshal(ast)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.ContainsRune(compact, '\n') {
		t.Errorf("expected compact JSON, got %s", compact)
	}
}

func TestFormat_YAML(t *testing.T) {
	ast, err := ParseString(t.Context(), "var o = { a: [1] };")
	if err != nil {
		t.Fatal(err)
	}

	var block bytes.Buffer
	if err := ast.FormatYAML(t.Context(), &block, 2); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"node: SetVariable", "node: ObjectLit", "name: a", "node: ArrayLit"} {
		if !strings.Contains(block.String(), want) {
			t.Errorf("expected %q in:\n%s", want, block.String())
		}
	}

	var flow bytes.Buffer
	if err := ast.FormatYAML(t.Context(), &flow, 0); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(flow.String(), "{") {
		t.Errorf("expected flow style, got %q", flow.String())
	}
}

func TestAST_Print(t *testing.T) {
	ast, err := ParseString(t.Context(), "var x = -1;")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ast.Print(t.Context(), &buf); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"hoisted:\n",
		"  Var: 1:1\n",
		"    name: x\n",
		"commands:\n",
		"  SetVariable: 1:1\n",
		"      Unary: 1:9\n",
		"        op: -\n",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in:\n%s", want, buf.String())
		}
	}
}

type failWriter struct{ n int }

func (w *failWriter) Write(p []byte) (int, error) {
	w.n++

	return 0, errors.New("closed")
}

func TestAST_Print_WriteError(t *testing.T) {
	ast, err := ParseString(t.Context(), "var x = 1; x++;")
	if err != nil {
		t.Fatal(err)
	}

	w := &failWriter{}
	if err := ast.Print(t.Context(), w); err == nil || err.Error() != "closed" {
		t.Fatalf("expected the write error, got %v", err)
	}

	if w.n != 1 {
		t.Errorf("expected writing to stop after the first error, got %d writes", w.n)
	}
}

func TestAST_String(t *testing.T) {
	ast, err := ParseString(t.Context(), "var  x=1 ;\nif(x){x++;}")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := ast.String(), "var x = 1; if (x) { x++; }"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormat_Empty(t *testing.T) {
	var nilAST *AST

	var buf bytes.Buffer
	if err := nilAST.Format(t.Context(), &buf, 2); err != nil || buf.Len() != 0 {
		t.Errorf("expected no output, got %q (%v)", buf.String(), err)
	}

	if got := nilAST.ToMap(); len(got["commands"].([]any)) != 0 {
		t.Errorf("expected empty tree, got %v", got)
	}
}
