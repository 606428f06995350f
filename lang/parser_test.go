package lang

import (
	"errors"
	"testing"
)

// parseExpr parses src as exactly one expression.
func parseExpr(t *testing.T, src string) Expr {
	t.Helper()

	p := NewParser(src)

	x, err := p.ParseExpression()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	if rest, err := p.ParseExpression(); err != nil || rest != nil {
		t.Fatalf("parse %q: trailing input %v (%v)", src, rest, err)
	}

	return x
}

// parseCmd parses src as exactly one command, without hoisting.
func parseCmd(t *testing.T, src string) Command {
	t.Helper()

	p := NewParser(src)

	cmd, err := p.ParseCommand()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	if rest, err := p.ParseCommand(); err != nil || rest != nil {
		t.Fatalf("parse %q: trailing input %v (%v)", src, rest, err)
	}

	return cmd
}

func TestParser_Constants(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"1", 1},
		{"1.2", 1.2},
		{"'foo'", "foo"},
		{`"bar"`, "bar"},
		{"null", nil},
		{"undefined", Undefined},
		{"true", true},
		{"false", false},
		{"99999999999999999999", 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			c, ok := parseExpr(t, tt.src).(*Constant)
			if !ok {
				t.Fatalf("expected *Constant")
			}

			if c.Value != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, c.Value, c.Value)
			}
		})
	}
}

func TestParser_ExpressionShapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a", "Variable"},
		{"-2", "Unary"},
		{"1+2", "Binary"},
		{"7%2", "Binary"},
		{"1<2", "CompareExpr"},
		{"a === b", "CompareExpr"},
		{"!a", "Not"},
		{"a && b", "And"},
		{"a || b", "Or"},
		{"++a", "Increment"},
		{"a.b--", "Increment"},
		{"a.length", "Dot"},
		{"a.c(1,2)", "Dot"},
		{"42.c(1,2)", "Dot"},
		{"a[0]", "Indexed"},
		{"f(1)", "InvokeExpr"},
		{"f(1)(2)", "InvokeExpr"},
		{"new Object()", "NewExpr"},
		{"new a.b.C", "NewExpr"},
		{"typeof foo", "TypeOfExpr"},
		{"a instanceof B", "InstanceOfExpr"},
		{"function () {}", "FunctionExpr"},
		{"function (x) { return x+1; } (2)", "InvokeExpr"},
		{"{ name: \"Adam\", age: 800 }", "ObjectLit"},
		{"{ 'quoted key': 1 }", "ObjectLit"},
		{"[]", "ArrayLit"},
		{"[1, 2+3, 'foo']", "ArrayLit"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := nodeName(parseExpr(t, tt.src)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParser_Precedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1+2)*3", "(1 + 2) * 3"},
		{"1-2-3", "1 - 2 - 3"},
		{"1-(2-3)", "1 - (2 - 3)"},
		{"a || b && c", "a || b && c"},
		{"(a || b) && c", "(a || b) && c"},
		{"a < b == c", "a < b == c"},
		{"-a.b", "-a.b"},
		{"!a && b", "!a && b"},
		{"a.b.c", "a.b.c"},
		{"typeof a + 'x'", "typeof a + \"x\""},
		{"a + b instanceof C", "a + b instanceof C"},
		{"x++ * 2", "x++ * 2"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := formatter{}.expr(parseExpr(t, tt.src), 0, 0)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParser_BinaryStructure(t *testing.T) {
	b, ok := parseExpr(t, "1+2*3").(*Binary)
	if !ok || b.Op != "+" {
		t.Fatalf("expected + at the root, got %#v", b)
	}

	if m, ok := b.Y.(*Binary); !ok || m.Op != "*" {
		t.Errorf("expected * on the right, got %#v", b.Y)
	}

	d, ok := parseExpr(t, "a.b.c").(*Dot)
	if !ok || d.Name != "c" {
		t.Fatalf("expected outer member c, got %#v", d)
	}
}

func TestParser_Increment(t *testing.T) {
	tests := []struct {
		src    string
		delta  int
		prefix bool
		target string
	}{
		{"++x", 1, true, "Variable"},
		{"--a.b", -1, true, "Dot"},
		{"x++", 1, false, "Variable"},
		{"a.b--", -1, false, "Dot"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			inc, ok := parseExpr(t, tt.src).(*Increment)
			if !ok {
				t.Fatal("expected *Increment")
			}

			if inc.Delta != tt.delta || inc.Prefix != tt.prefix || nodeName(inc.Target) != tt.target {
				t.Errorf("got delta=%d prefix=%v target=%s", inc.Delta, inc.Prefix, nodeName(inc.Target))
			}
		})
	}
}

func TestParser_Commands(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"var x;", "Var"},
		{"var x = 1;", "Composite"},
		{"x = 1;", "Set"},
		{"a.FirstName = \"Adam\";", "Set"},
		{"a[1] = 2;", "SetArray"},
		{"a.b[1] = 2;", "SetArray"},
		{"write(1);", "ExprCommand"},
		{"return;", "Return"},
		{"return 1;", "Return"},
		{"if (a) b = 1;", "If"},
		{"if (a) b = 1; else b = 2;", "If"},
		{"while (a) a = a - 1;", "While"},
		{"for (x = 0; x < 3; x++) y = x;", "For"},
		{"for (;;) {}", "For"},
		{"for (k in o) f(k);", "ForEach"},
		{"for (var k in o) f(k);", "Composite"},
		{"{ a = 1; b = 2; }", "Composite"},
		{"delete adam.name;", "Delete"},
		{"delete adam;", "Delete"},
		{";", "NoOperation"},
		{"function add1(x) { return x+1; }", "ExprCommand"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := nodeName(parseCmd(t, tt.src)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParser_ForInDeclaresVariable(t *testing.T) {
	c, ok := parseCmd(t, "for (var k in o) f(k);").(*Composite)
	if !ok || len(c.Commands) != 2 {
		t.Fatalf("expected a two-command composite, got %#v", c)
	}

	if v, ok := c.Commands[0].(*Var); !ok || v.Name != "k" {
		t.Errorf("expected Var k first, got %#v", c.Commands[0])
	}

	if fe, ok := c.Commands[1].(*ForEach); !ok || fe.Name != "k" {
		t.Errorf("expected ForEach over k, got %#v", c.Commands[1])
	}
}

func TestParser_Hoisting(t *testing.T) {
	ast, err := ParseString(t.Context(), "x = 1; y=2; var x; var y;")
	if err != nil {
		t.Fatal(err)
	}

	hoisted, positional := ast.Len()
	if hoisted != 2 || positional != 2 {
		t.Fatalf("expected 2 hoisted and 2 positional, got %d and %d", hoisted, positional)
	}

	if _, ok := ast.Program.Hoisted[0].(*Var); !ok {
		t.Errorf("expected Var first, got %s", nodeName(ast.Program.Hoisted[0]))
	}
}

func TestParser_HoistingInitializers(t *testing.T) {
	ast, err := ParseString(t.Context(), `
		var a = 1;
		if (a) { var b = 2; }
		function f() { var c = 3; }
		f();
	`)
	if err != nil {
		t.Fatal(err)
	}

	var names []string

	for _, h := range ast.Program.Hoisted {
		switch c := h.(type) {
		case *Var:
			names = append(names, c.Name)
		case *ExprCommand:
			names = append(names, c.X.(*FunctionExpr).Name)
		}
	}

	want := []string{"a", "b", "f"}
	if len(names) != len(want) {
		t.Fatalf("expected hoisted %v, got %v", want, names)
	}

	for i := range want {
		if names[i] != want[i] {
			t.Errorf("hoisted %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	// var a = 1; if; f();
	if len(ast.Program.Commands) != 3 {
		t.Fatalf("expected 3 positional commands, got %d", len(ast.Program.Commands))
	}

	if _, ok := ast.Program.Commands[0].(*SetVariable); !ok {
		t.Errorf("expected SetVariable, got %s", nodeName(ast.Program.Commands[0]))
	}

	fn := ast.Program.Hoisted[2].(*ExprCommand).X.(*FunctionExpr)
	if len(fn.Body.Hoisted) != 1 {
		t.Errorf("expected function body to hoist its own var, got %d", len(fn.Body.Hoisted))
	}
}

func TestParser_InnerFunctions(t *testing.T) {
	fn, ok := parseExpr(t, "function add1(x) { function bar() {} return x+1; function foo() {}}").(*FunctionExpr)
	if !ok {
		t.Fatal("expected *FunctionExpr")
	}

	if fn.Name != "add1" || len(fn.Params) != 1 {
		t.Errorf("unexpected header %s(%v)", fn.Name, fn.Params)
	}

	if len(fn.Body.Hoisted) != 2 || len(fn.Body.Commands) != 1 {
		t.Errorf("expected 2 hoisted and 1 positional, got %d and %d",
			len(fn.Body.Hoisted), len(fn.Body.Commands))
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		msg  string
	}{
		{"unexpected dot", ".", ErrUnexpected, "Unexpected '.'"},
		{"assign to this", "this = 1;", ErrInvalidName, "Invalid name 'this'"},
		{"declare this", "var this;", ErrInvalidName, "Invalid name 'this'"},
		{"declare null", "var null = 1;", ErrInvalidName, "Invalid name 'null'"},
		{"param named true", "var f = function(true) {};", ErrInvalidName, "Invalid name 'true'"},
		{"missing semicolon", "x = 1", ErrExpected, "Expected ';'"},
		{"missing paren", "if (a b = 1;", ErrExpected, "Expected ')'"},
		{"missing name", "var 1;", ErrExpectedName, ""},
		{"bad object key", "x = { 1: 2 };", ErrExpectedName, ""},
		{"unterminated block", "{ a = 1;", ErrSyntax, ""},
		{"dangling operator", "x = 1 + ;", ErrUnexpected, "Unexpected ';'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(t.Context(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected a syntax error, got %v", err)
			}

			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, err.Error())
			}
		})
	}
}

func TestParser_ErrorPosition(t *testing.T) {
	_, err := ParseString(t.Context(), "var a = 1;\nvar b = (2;")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}

	attrs := map[string]int64{}
	for _, a := range perr.Attrs() {
		if a.Key == "line" || a.Key == "column" {
			attrs[a.Key] = a.Value.Int64()
		}
	}

	if attrs["line"] != 2 || attrs["column"] != 11 {
		t.Errorf("expected 2:11, got %d:%d", attrs["line"], attrs["column"])
	}
}
