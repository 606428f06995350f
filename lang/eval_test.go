package lang

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func run(t *testing.T, rt *Runtime, src string) {
	t.Helper()

	if err := rt.Exec(t.Context(), src); err != nil {
		t.Fatalf("exec %q: %v", src, err)
	}
}

func evalExpr(t *testing.T, rt *Runtime, src string) Value {
	t.Helper()

	v, err := rt.EvalExpression(t.Context(), src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}

	return v
}

// runCommands executes src one command at a time, without hoisting.
func runCommands(t *testing.T, rt *Runtime, src string) {
	t.Helper()

	p := NewParser(src)

	for {
		cmd, err := p.ParseCommand()
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}

		if cmd == nil {
			return
		}

		if err := rt.Execute(t.Context(), cmd, rt.Global()); err != nil {
			t.Fatalf("execute %q: %v", src, err)
		}
	}
}

func TestEvaluate_Expressions(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"1+2", 3},
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"10-4-3", 3},
		{"7/2", 3.5},
		{"8/2", 4},
		{`7\2`, 3},
		{"7%3", 1},
		{"1.5+1", 2.5},
		{"-3+1", -2},
		{"+'4'", 4},
		{"'a'+1", "a1"},
		{"1+'a'", "1a"},
		{"'a'+null", "anull"},
		{"null", nil},
		{"undefined", Undefined},
		{"true && true", true},
		{"false || true", true},
		{"true && false", false},
		{"false || false", false},
		{"0 || 'x'", "x"},
		{"1 && 2", 2},
		{"!0", true},
		{"!'a'", false},
		{"1 < 2", true},
		{"2 <= 1", false},
		{"'a' < 'b'", true},
		{"1 == 1.0", true},
		{"1 == '1'", true},
		{"1 === '1'", false},
		{"1 !== '1'", true},
		{"null == undefined", true},
		{"null === undefined", false},
		{"typeof 1", "number"},
		{"typeof 1.5", "number"},
		{"typeof 'a'", "string"},
		{"typeof true", "boolean"},
		{"typeof null", "null"},
		{"typeof undefined", "undefined"},
		{"typeof nothing", "undefined"},
		{"typeof {}", "object"},
		{"typeof []", "object"},
		{"typeof function(){}", "object"},
		{"'hello'.length", 5},
		{"'hello'[1]", "e"},
		{"[1,2,3].length", 3},
		{"[1,2,3][2]", 3},
		{"[1,2,3][5]", Undefined},
		{"{a: 1}.a", 1},
		{"{'b c': 2}['b c']", 2},
		{"function (x) { return x+1;} (2)", 3},
		{"[1,2] instanceof Array", true},
		{"{} instanceof Object", true},
		{"{} instanceof Array", false},
		{"function(){} instanceof Function", true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := evalExpr(t, New(), tt.src)
			if !StrictEquals(got, tt.want) || TypeOf(got) != TypeOf(tt.want) {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestEvaluate_Commands(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]Value
	}{
		{"var", "var x;", map[string]Value{"x": Undefined}},
		{"define var", "var x=1;", map[string]Value{"x": 1}},
		{"define var with expression", "var x=1+2;", map[string]Value{"x": 3}},
		{"set undeclared", "x = 1+2;", map[string]Value{"x": 3}},
		{"pre increment", "var x = 0; y = ++x;", map[string]Value{"x": 1, "y": 1}},
		{"post increment", "var x = 0; y = x++;", map[string]Value{"x": 1, "y": 0}},
		{"pre decrement", "var x = 0; y = --x;", map[string]Value{"x": -1, "y": -1}},
		{"post decrement", "var x = 0; y = x--;", map[string]Value{"x": -1, "y": 0}},
		{"simple for", "var y = 1; for (var x=1; x<4; x++) y = y*x;", map[string]Value{"x": 4, "y": 6}},
		{
			"for with block", "var y = 1; for (var x=1; x<4; x++) { y = y*x; y = y*2; }",
			map[string]Value{"x": 4, "y": 48},
		},
		{"while", "var n = 0; while (n < 5) n++;", map[string]Value{"n": 5}},
		{"if", "var a; if (1 < 2) a = 'yes'; else a = 'no';", map[string]Value{"a": "yes"}},
		{"else", "var a; if (1 > 2) a = 'yes'; else a = 'no';", map[string]Value{"a": "no"}},
		{"add function", "var add1 = function (x) { return x+1;}; result = add1(2);", map[string]Value{"result": 3}},
		{
			"closure", "var addx = function (x) { return function(y) { return x+y;}; }; result = addx(2)(3);",
			map[string]Value{"result": 5},
		},
		{
			"shared closure env",
			"function counter() { var n = 0; return { inc: function() { n++; return n; }, get: function() { return n; } }; }" +
				"var c = counter(); c.inc(); c.inc(); result = c.get();",
			map[string]Value{"result": 2},
		},
		{"prototype", "var x = new Object(); Object.prototype.y = 10; result = x.y;", map[string]Value{"result": 10}},
		{"literal prototype", "var x = {}; Object.prototype.y = 10; result = x.y;", map[string]Value{"result": 10}},
		{"bracket set", "var x = new Object(); x['y'] = 10; result = x.y;", map[string]Value{"result": 10}},
		{"hoisted assignment", "x = 1; y = 2; var x; var y;", map[string]Value{"x": 1, "y": 2}},
		{"hoisted function", "result = sq(4); function sq(n) { return n * n; }", map[string]Value{"result": 16}},
		{"for in object", "var s = ''; for (var k in {a: 1, b: 2}) s = s + k;", map[string]Value{"s": "ab", "k": "b"}},
		{"for in array", "var s = 0; for (var v in [1, 2, 3]) s = s + v;", map[string]Value{"s": 6}},
		{"for in null", "var n = 0; for (var k in null) n++;", map[string]Value{"n": 0}},
		{"delete variable", "var a = 1; delete a;", map[string]Value{"a": Undefined}},
		{"delete property", "var o = {a: 1}; delete o.a; r = o.a;", map[string]Value{"r": Undefined}},
		{"delete index", "var o = {a: 1}; delete o['a']; r = o.a;", map[string]Value{"r": Undefined}},
		{"missing arguments", "function f(a, b) { return b; } r = f(1);", map[string]Value{"r": Undefined}},
		{"extra arguments", "function f(a) { return arguments.length; } r = f(1, 2, 3);", map[string]Value{"r": 3}},
		{"return from loop", "function f() { for (var i = 0; ; i++) if (i == 3) return i; } r = f();", map[string]Value{"r": 3}},
		{"nested return", "function f() { if (true) { while (true) { return 'deep'; } } return 'no'; } r = f();", map[string]Value{"r": "deep"}},
		{"member increment", "var o = {n: 1}; o.n++; ++o.n; r = o.n;", map[string]Value{"r": 3}},
		{"index increment", "var a = [5]; r = a[0]++; s = a[0];", map[string]Value{"r": 5, "s": 6}},
		{"array grows", "var a = []; a[2] = 'x'; n = a.length; first = a[0];", map[string]Value{"n": 3, "first": Undefined}},
		{"string compare", "r = 'abc' < 'abd';", map[string]Value{"r": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := New()
			run(t, rt, tt.src)

			for name, want := range tt.want {
				if got := rt.Get(name); !StrictEquals(got, want) {
					t.Errorf("%s: expected %v (%T), got %v (%T)", name, want, want, got, got)
				}
			}
		})
	}
}

func TestEvaluate_UnhoistedCommands(t *testing.T) {
	rt := New()
	runCommands(t, rt, "var y = 1; for (var x=1; x<4; x++) y = y*x;")

	if got := rt.Get("x"); got != 4 {
		t.Errorf("expected x=4, got %v", got)
	}

	if got := rt.Get("y"); got != 6 {
		t.Errorf("expected y=6, got %v", got)
	}
}

func TestEvaluate_UndefinedIsNotNull(t *testing.T) {
	rt := New()
	run(t, rt, "var x;")

	v, ok := rt.Global().Lookup("x")
	if !ok {
		t.Fatal("expected x to be declared")
	}

	if v != Undefined || v == nil {
		t.Errorf("expected Undefined, got %v", v)
	}

	if got := evalExpr(t, rt, "x === null"); got != false {
		t.Errorf("expected undefined !== null")
	}
}

func TestEvaluate_GlobalThis(t *testing.T) {
	rt := New()
	runCommands(t, rt, "function Person() { this.name = 'Adam'; this.age = 800; }")

	if got := evalExpr(t, rt, "Person()"); got != Undefined {
		t.Errorf("expected plain call to yield undefined, got %v", got)
	}

	if got := rt.Get("name"); got != "Adam" {
		t.Errorf("expected global name, got %v", got)
	}

	if got := rt.Get("age"); got != 800 {
		t.Errorf("expected global age, got %v", got)
	}

	run(t, rt, "function self() { return this; } var g = self(); var kind = typeof g;")

	if got := rt.Get("kind"); got != "object" {
		t.Errorf("expected explicit return of this to yield the global object, got %v", got)
	}

	if got := evalExpr(t, rt, "g.name"); got != "Adam" {
		t.Errorf("expected global object to expose globals, got %v", got)
	}

	v, err := rt.Call(t.Context(), rt.Get("self"))
	if err != nil {
		t.Fatal(err)
	}

	if o, ok := v.(Object); !ok || o.GetValue("age") != 800 {
		t.Errorf("expected Call to return the global object, got %v", v)
	}

	if got, err := rt.Call(t.Context(), rt.Get("Person")); err != nil || got != Undefined {
		t.Errorf("expected Call without return to yield undefined, got %v (%v)", got, err)
	}
}

func TestEvaluate_CallAndApply(t *testing.T) {
	tests := []struct {
		name string
		decl string
		call string
	}{
		{"call without arguments", "function Person() { this.name = 'Adam'; this.age = 800; }", "Person.call(adam)"},
		{"call with arguments", "function MakePerson(name, age) { this.name = name; this.age = age; }", "MakePerson.call(adam, ['Adam', 800])"},
		{"apply without arguments", "function Person() { this.name = 'Adam'; this.age = 800; }", "Person.apply(adam)"},
		{"apply with arguments", "function MakePerson(name, age) { this.name = name; this.age = age; }", "MakePerson.apply(adam, 'Adam', 800)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := New()
			runCommands(t, rt, tt.decl)
			runCommands(t, rt, "var adam = {};")
			evalExpr(t, rt, tt.call)

			if got := evalExpr(t, rt, "adam.name"); got != "Adam" {
				t.Errorf("expected name Adam, got %v", got)
			}

			if got := evalExpr(t, rt, "adam.age"); got != 800 {
				t.Errorf("expected age 800, got %v", got)
			}

			if got := rt.Get("name"); got != Undefined {
				t.Errorf("expected no global name, got %v", got)
			}
		})
	}
}

func TestEvaluate_New(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		if _, ok := evalExpr(t, New(), "new Object()").(Object); !ok {
			t.Error("expected an object")
		}
	})

	t.Run("empty literal", func(t *testing.T) {
		if _, ok := evalExpr(t, New(), "{}").(Object); !ok {
			t.Error("expected an object")
		}
	})

	t.Run("function", func(t *testing.T) {
		rt := New()
		runCommands(t, rt, "function foo() { this.name = 'Adam'; this.age = 800; }")

		obj, ok := evalExpr(t, rt, "new foo()").(Object)
		if !ok {
			t.Fatal("expected an object")
		}

		if obj.GetValue("name") != "Adam" || obj.GetValue("age") != 800 {
			t.Errorf("unexpected properties %v", obj.Names())
		}

		if obj.Function() != rt.Get("foo") {
			t.Error("expected instance to be associated with its constructor")
		}
	})

	t.Run("member function", func(t *testing.T) {
		rt := New()
		runCommands(t, rt, "var obj = new Object(); obj.foo = function() { this.name = 'Adam'; this.age = 800; };")

		obj, ok := evalExpr(t, rt, "new obj.foo()").(Object)
		if !ok {
			t.Fatal("expected an object")
		}

		if obj.GetValue("name") != "Adam" || obj.GetValue("age") != 800 {
			t.Errorf("unexpected properties %v", obj.Names())
		}
	})

	t.Run("return value ignored", func(t *testing.T) {
		rt := New()
		run(t, rt, "function F() { this.a = 1; return {b: 2}; } var f = new F();")

		if got := evalExpr(t, rt, "f.a"); got != 1 {
			t.Errorf("expected allocated instance, got a=%v", got)
		}
	})

	t.Run("instanceof", func(t *testing.T) {
		rt := New()
		run(t, rt, "function P() {} var p = new P(); r = p instanceof P; s = p instanceof Object; u = {} instanceof P;")

		for name, want := range map[string]bool{"r": true, "s": true, "u": false} {
			if got := rt.Get(name); got != want {
				t.Errorf("%s: expected %v, got %v", name, want, got)
			}
		}
	})
}

func TestEvaluate_Prototypes(t *testing.T) {
	rt := New()
	runCommands(t, rt, "function Person() { this.name = 'Adam'; }")
	runCommands(t, rt, "Person.prototype.age = 800; var adam = new Person();")

	if got := evalExpr(t, rt, "adam.age"); got != 800 {
		t.Errorf("expected inherited age, got %v", got)
	}

	runCommands(t, rt, "adam.age = 600;")

	if got := evalExpr(t, rt, "adam.age"); got != 600 {
		t.Errorf("expected own age, got %v", got)
	}

	if got := evalExpr(t, rt, "Person.prototype.age"); got != 800 {
		t.Errorf("expected prototype untouched, got %v", got)
	}

	runCommands(t, rt, "Person.prototype.greet = function() { return 'hi ' + this.name; };")

	if got := evalExpr(t, rt, "adam.greet()"); got != "hi Adam" {
		t.Errorf("expected method through prototype, got %v", got)
	}
}

func TestEvaluate_Arrays(t *testing.T) {
	t.Run("push", func(t *testing.T) {
		rt := New()
		runCommands(t, rt, "var arr = []; arr.push(1); arr.push(2);")

		for src, want := range map[string]Value{"arr.length": 2, "arr[0]": 1, "arr[1]": 2} {
			if got := evalExpr(t, rt, src); got != want {
				t.Errorf("%s: expected %v, got %v", src, want, got)
			}
		}
	})

	t.Run("unshift", func(t *testing.T) {
		rt := New()
		runCommands(t, rt, "var arr = [1, 2, 3];")

		if got := evalExpr(t, rt, "arr.unshift(4)"); got != 4 {
			t.Errorf("expected new length 4, got %v", got)
		}

		for i, want := range []int{4, 1, 2, 3} {
			if got := rt.Get("arr").(*ArrayObject).Index(i); got != want {
				t.Errorf("index %d: expected %d, got %v", i, want, got)
			}
		}
	})

	t.Run("shift", func(t *testing.T) {
		rt := New()
		runCommands(t, rt, "var arr = [1, 2, 3];")

		if got := evalExpr(t, rt, "arr.shift()"); got != 1 {
			t.Errorf("expected 1, got %v", got)
		}

		for src, want := range map[string]Value{"arr.length": 2, "arr[0]": 2, "arr[1]": 3} {
			if got := evalExpr(t, rt, src); got != want {
				t.Errorf("%s: expected %v, got %v", src, want, got)
			}
		}
	})

	t.Run("pop", func(t *testing.T) {
		rt := New()

		if got := evalExpr(t, rt, "[1, 2].pop()"); got != 2 {
			t.Errorf("expected 2, got %v", got)
		}

		if got := evalExpr(t, rt, "[].pop()"); got != Undefined {
			t.Errorf("expected undefined, got %v", got)
		}
	})

	t.Run("join slice indexOf", func(t *testing.T) {
		rt := New()

		tests := map[string]Value{
			"[1, 2, 3].join()":                "1,2,3",
			"[1, 2, 3].join('-')":             "1-2-3",
			"[1, 2, 3, 4].slice(1, 3).join()": "2,3",
			"[1, 2, 3, 4].slice(-2).join()":   "3,4",
			"['a', 'b'].indexOf('b')":         1,
			"['a', 'b'].indexOf('c')":         -1,
			"'' + [1, [2, 3]]":                "1,2,3",
		}

		for src, want := range tests {
			if got := evalExpr(t, rt, src); got != want {
				t.Errorf("%s: expected %v, got %v", src, want, got)
			}
		}
	})
}

func TestEvaluate_FarArrayIndex(t *testing.T) {
	rt := New()
	run(t, rt, "var a = [1]; a[1000000000] = 2; a[-1] = 3;")

	tests := []struct {
		src  string
		want Value
	}{
		{"a.length", 1},
		{"a[1000000000]", 2},
		{"a[-1]", 3},
		{"a[999999999]", Undefined},
	}

	for _, tt := range tests {
		if got := evalExpr(t, rt, tt.src); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.src, tt.want, got)
		}
	}

	run(t, rt, "delete a[1000000000];")

	if got := evalExpr(t, rt, "a[1000000000]"); got != Undefined {
		t.Errorf("expected delete to remove the far element, got %v", got)
	}
}

func TestEvaluate_ObjectKeys(t *testing.T) {
	rt := New()

	if got := evalExpr(t, rt, "Object.keys({b: 1, a: 2}).join()"); got != "b,a" {
		t.Errorf("expected insertion order, got %v", got)
	}
}

func TestEvaluate_Idempotence(t *testing.T) {
	rt := New()
	run(t, rt, "var a = 3; var o = {x: 2, y: [1, 2]}; function sq(n) { return n * n; }")

	for _, src := range []string{"a * o.x + o.y[1]", "sq(a) - 1", "typeof o.y", "o.y.length > 1 && a"} {
		first := evalExpr(t, rt, src)

		for range 3 {
			if got := evalExpr(t, rt, src); !StrictEquals(got, first) {
				t.Errorf("%s: expected %v, got %v", src, first, got)
			}
		}
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	rt := New()
	run(t, rt, "var n = 0; function bump() { n++; return true; } false && bump(); true || bump();")

	if got := rt.Get("n"); got != 0 {
		t.Errorf("expected right operands to be skipped, n=%v", got)
	}
}

func TestEvaluate_Print(t *testing.T) {
	var out bytes.Buffer

	rt := New(WithOutput(&out))
	run(t, rt, "print('a', 1, [2, 3], null); print();")

	if got := out.String(); got != "a 1 2,3 null\n\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRuntime_EvalResult(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"1 + 1;", 2},
		{"var a = 5; a * 2;", 10},
		{"var a = 5;", Undefined},
		{"return 7; 8;", 7},
		{"'x'; var y = 1;", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := New().Eval(t.Context(), tt.src)
			if err != nil {
				t.Fatal(err)
			}

			if !StrictEquals(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRuntime_ReturnDoesNotLeak(t *testing.T) {
	rt := New()

	if _, err := rt.Eval(t.Context(), "return 1;"); err != nil {
		t.Fatal(err)
	}

	v, err := rt.Eval(t.Context(), "var b = 2; b;")
	if err != nil {
		t.Fatal(err)
	}

	if v != 2 {
		t.Errorf("expected second program to run, got %v", v)
	}
}

func TestRuntime_Globals(t *testing.T) {
	rt := New(WithGlobals(map[string]Value{"answer": 42}))
	rt.Set("greet", NativeFunc(func(_ context.Context, _ Value, args []Value) (Value, error) {
		return "hello " + ToString(arg(args, 0)), nil
	}))

	if got := evalExpr(t, rt, "greet('world') + answer"); got != "hello world42" {
		t.Errorf("unexpected result %v", got)
	}

	for _, name := range []string{"Object", "Array", "Function", "print"} {
		if !Builtin(name) {
			t.Errorf("expected %s to be a builtin", name)
		}

		if rt.Get(name) == Undefined {
			t.Errorf("expected %s to be installed", name)
		}
	}
}

func TestRuntime_Call(t *testing.T) {
	rt := New()
	run(t, rt, "function add(a, b) { return a + b; } function noop() {}")

	if got, err := rt.Call(t.Context(), rt.Get("add"), 2, 3); err != nil || got != 5 {
		t.Errorf("expected 5, got %v (%v)", got, err)
	}

	if got, err := rt.Call(t.Context(), rt.Get("noop")); err != nil || got != Undefined {
		t.Errorf("expected undefined, got %v (%v)", got, err)
	}

	if _, err := rt.Call(t.Context(), 1); !errors.Is(err, ErrNotCallable) {
		t.Errorf("expected ErrNotCallable, got %v", err)
	}
}

func TestRuntime_Lookup(t *testing.T) {
	rt := New()
	run(t, rt, "var config = { log: { level: 'debug' }, n: 1 };")

	tests := []struct {
		path string
		want Value
		ok   bool
	}{
		{"config.log.level", "debug", true},
		{"config.n", 1, true},
		{"config.missing", nil, false},
		{"config.n.deeper", nil, false},
		{"nothing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := rt.Lookup(tt.path)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("expected %v %v, got %v %v", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"call number", "var a = 1; a();", ErrNotCallable},
		{"call undefined", "nothing();", ErrNotCallable},
		{"method on number", "var a = 1; a.foo();", ErrNotObject},
		{"member of null", "var a = null; a.b;", ErrNotObject},
		{"set member of undefined", "var a; a.b = 1;", ErrNotObject},
		{"index null", "var a = null; a[0];", ErrNotIndexable},
		{"missing method", "var o = {}; o.nope();", ErrNotCallable},
		{"new number", "var a = 1; new a();", ErrNotConstructor},
		{"new native", "new print();", ErrNotConstructor},
		{"instanceof number", "r = 1 instanceof 2;", ErrNotConstructor},
		{"integer division by zero", `r = 1 \ 0;`, ErrDivideByZero},
		{"modulo by zero", "r = 1 % 0;", ErrDivideByZero},
		{"object arithmetic", "r = {} * 2;", ErrInvalidOperand},
		{"increment object", "var o = {}; o++;", ErrInvalidOperand},
		{"decrement string", "var o = 'a'; --o;", ErrInvalidOperand},
		{"for in number", "for (var k in 5) {}", ErrNotObject},
		{"array method receiver", "var o = {f: [].push}; o.f(1);", ErrNotObject},
		{"call non function", "var f = {}; f.call = Function.call; f.call();", ErrNotCallable},
		{"host member without bridge", "", ErrNoBridge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := New()

			var err error
			if tt.src == "" {
				rt.Set("host", struct{ A int }{1})
				_, err = rt.Eval(t.Context(), "host.A;")
			} else {
				_, err = rt.Eval(t.Context(), tt.src)
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if !errors.Is(err, ErrRuntime) && !errors.Is(err, ErrInterop) {
				t.Errorf("expected a runtime or interop error, got %v", err)
			}
		})
	}
}

func TestEvaluate_IntegerOverflow(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"9223372036854775807 + 1;", 9223372036854775808},
		{"9223372036854775807 * 2;", 18446744073709551614},
		{"-9223372036854775807 - 2;", -9223372036854775809},
		{"var n = 9223372036854775807; n++; n;", 9223372036854775808},
		{"var n = 9223372036854775807; ++n;", 9223372036854775808},
		{"99999999999999999999;", 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := New().Eval(t.Context(), tt.src)
			if err != nil {
				t.Fatal(err)
			}

			if f, ok := got.(float64); !ok || f != tt.want {
				t.Errorf("expected float64 %g, got %v (%T)", tt.want, got, got)
			}
		})
	}

	got, err := New().Eval(t.Context(), "var n = 9223372036854775806; n++; n;")
	if err != nil || got != 9223372036854775807 {
		t.Errorf("expected the int range to be kept, got %v (%T, %v)", got, got, err)
	}
}

func TestEvaluate_MaxDepth(t *testing.T) {
	rt := New(WithMaxDepth(16))

	_, err := rt.Eval(t.Context(), "function f(n) { return f(n + 1); } f(0);")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}

	got, err := rt.Eval(t.Context(), "function g(n) { if (n == 0) return 0; return g(n - 1) + 1; } g(10);")
	if err != nil || got != 10 {
		t.Errorf("expected recursion within the limit to succeed, got %v (%v)", got, err)
	}
}

func TestEvaluate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().Eval(ctx, "while (true) {}")
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the context cause to be wrapped, got %v", err)
	}
}

func TestEvaluate_SideEffectsRetained(t *testing.T) {
	rt := New()

	if _, err := rt.Eval(t.Context(), "a = 1; b(); c = 2;"); err == nil {
		t.Fatal("expected an error")
	}

	if rt.Get("a") != 1 {
		t.Error("expected assignment before the error to persist")
	}

	if rt.Get("c") != Undefined {
		t.Error("expected assignment after the error to be skipped")
	}
}
