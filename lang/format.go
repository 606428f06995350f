package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

// Format writes the program as canonical source. With indent > 0 every
// command is on its own line and blocks are indented by indent spaces;
// otherwise the program is written on a single line.
func (ast *AST) Format(_ context.Context, w io.Writer, indent int) error {
	if ast == nil || ast.Program == nil {
		return nil
	}

	f := formatter{indent: indent}

	sep := " "
	if indent > 0 {
		sep = "\n"
	}

	_, err := fmt.Fprintln(w, strings.Join(f.body(ast.Program, 0), sep))

	return err
}

// FormatJSON writes the syntax tree as JSON.
func (ast *AST) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(ast.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(ast.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the syntax tree as YAML.
func (ast *AST) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, ast.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// MarshalJSON implements json.Marshaler.
func (ast *AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(ast.ToMap())
}

// String returns the program as single-line source.
func (ast *AST) String() string {
	var b strings.Builder

	_ = ast.Format(context.Background(), &b, 0)

	return strings.TrimSuffix(b.String(), "\n")
}

// formatter renders commands and expressions as source text.
type formatter struct {
	indent int
}

// body renders the hoisted declarations of c followed by its commands.
// A hoisted var is omitted when an initialized declaration of the same name
// is rendered, since parsing that declaration hoists it again.
func (f formatter) body(c *Composite, depth int) []string {
	inits := make(map[string]bool)
	collectInits(c, inits)

	var lines []string

	for _, h := range c.Hoisted {
		if v, ok := h.(*Var); ok && inits[v.Name] {
			continue
		}

		lines = append(lines, f.command(h, depth))
	}

	for _, cmd := range c.Commands {
		if isNoOp(cmd) {
			if _, ok := cmd.(*Composite); !ok {
				continue
			}
		}

		lines = append(lines, f.command(cmd, depth))
	}

	return lines
}

// collectInits records the names of initialized var declarations reachable
// from cmd without entering a function body.
func collectInits(cmd Command, names map[string]bool) {
	switch c := cmd.(type) {
	case *SetVariable:
		names[c.Name] = true
	case *If:
		collectInits(c.Then, names)
		collectInits(c.Else, names)
	case *While:
		collectInits(c.Body, names)
	case *For:
		collectInits(c.Init, names)
		collectInits(c.Body, names)
	case *ForEach:
		collectInits(c.Body, names)
	case *Composite:
		for _, sub := range c.Commands {
			collectInits(sub, names)
		}
	}
}

func (f formatter) block(c *Composite, depth int) string {
	lines := f.body(c, depth+1)
	if len(lines) == 0 {
		return "{}"
	}

	if f.indent <= 0 {
		return "{ " + strings.Join(lines, " ") + " }"
	}

	pad := strings.Repeat(" ", (depth+1)*f.indent)

	var b strings.Builder

	b.WriteString("{\n")

	for _, line := range lines {
		b.WriteString(pad + line + "\n")
	}

	b.WriteString(strings.Repeat(" ", depth*f.indent) + "}")

	return b.String()
}

// forIn reports whether c is the declaration pair of "for (var k in o)".
func forIn(c *Composite) (*ForEach, bool) {
	if len(c.Hoisted) > 0 || len(c.Commands) != 2 {
		return nil, false
	}

	v, ok := c.Commands[0].(*Var)
	if !ok {
		return nil, false
	}

	fe, ok := c.Commands[1].(*ForEach)

	return fe, ok && fe.Name == v.Name
}

// varInit reports whether c is an unhoisted "var x = v" pair.
func varInit(c *Composite) (*SetVariable, bool) {
	if len(c.Hoisted) > 0 || len(c.Commands) != 2 {
		return nil, false
	}

	v, ok := c.Commands[0].(*Var)
	if !ok {
		return nil, false
	}

	set, ok := c.Commands[1].(*SetVariable)

	return set, ok && set.Name == v.Name
}

// clause renders cmd as a loop body or branch.
func (f formatter) clause(cmd Command, depth int) string {
	if c, ok := cmd.(*Composite); ok {
		if _, ok := forIn(c); !ok {
			if _, ok := varInit(c); !ok {
				return f.block(c, depth)
			}
		}
	}

	return f.command(cmd, depth)
}

func (f formatter) command(cmd Command, depth int) string {
	switch c := cmd.(type) {
	case nil, *NoOperation:
		return ";"

	case *Var:
		return "var " + c.Name + ";"

	case *SetVariable:
		return "var " + c.Name + " = " + f.expr(c.Value, depth, 0) + ";"

	case *Set:
		return f.lead(c.Target, depth) + " = " + f.expr(c.Value, depth, 0) + ";"

	case *SetArray:
		return f.lead(c.X, depth) + "[" + f.list(c.Args, depth) + "] = " +
			f.expr(c.Value, depth, 0) + ";"

	case *ExprCommand:
		if fn, ok := c.X.(*FunctionExpr); ok && fn.Name != "" {
			return f.expr(fn, depth, 0)
		}

		return f.lead(c.X, depth) + ";"

	case *Return:
		if c.X == nil {
			return "return;"
		}

		return "return " + f.expr(c.X, depth, 0) + ";"

	case *If:
		then := f.clause(c.Then, depth)
		if c.Else == nil {
			return "if (" + f.expr(c.Cond, depth, 0) + ") " + then
		}

		if _, ok := c.Then.(*Composite); !ok {
			then = f.block(&Composite{Commands: []Command{c.Then}}, depth)
		}

		return "if (" + f.expr(c.Cond, depth, 0) + ") " + then + " else " + f.clause(c.Else, depth)

	case *While:
		return "while (" + f.expr(c.Cond, depth, 0) + ") " + f.clause(c.Body, depth)

	case *For:
		var b strings.Builder

		b.WriteString("for (")

		switch init := c.Init.(type) {
		case nil, *NoOperation:
			b.WriteString(";")
		case *SetVariable:
			b.WriteString(f.command(init, depth))
		default:
			b.WriteString(strings.TrimSuffix(f.command(init, depth), ";") + ";")
		}

		if c.Cond != nil {
			b.WriteString(" " + f.expr(c.Cond, depth, 0))
		}

		b.WriteString(";")

		if c.Step != nil {
			b.WriteString(" " + strings.TrimSuffix(f.command(c.Step, depth), ";"))
		}

		b.WriteString(") " + f.clause(c.Body, depth))

		return b.String()

	case *ForEach:
		return "for (" + c.Name + " in " + f.expr(c.Iter, depth, 0) + ") " + f.clause(c.Body, depth)

	case *Delete:
		return "delete " + f.expr(c.X, depth, 0) + ";"

	case *Composite:
		if fe, ok := forIn(c); ok {
			return "for (var " + fe.Name + " in " + f.expr(fe.Iter, depth, 0) + ") " +
				f.clause(fe.Body, depth)
		}

		if set, ok := varInit(c); ok {
			return f.command(set, depth)
		}

		return f.block(c, depth)
	}

	return "/* " + nodeName(cmd) + " */"
}

// lead renders an expression in statement-leading position, where an
// opening brace would start a block.
func (f formatter) lead(x Expr, depth int) string {
	s := f.expr(x, depth, 0)
	if strings.HasPrefix(s, "{") {
		return "(" + s + ")"
	}

	return s
}

// Binding strength of expression forms, loosest first.
const (
	precInstanceOf = iota
	precOr
	precAnd
	precCompare
	precAdditive
	precMultiplicative
	precUnary
	precTerm
)

func precedence(x Expr) int {
	switch e := x.(type) {
	case *InstanceOfExpr:
		return precInstanceOf
	case *Or:
		return precOr
	case *And:
		return precAnd
	case *CompareExpr:
		return precCompare
	case *Binary:
		if e.Op == "+" || e.Op == "-" {
			return precAdditive
		}

		return precMultiplicative
	case *Unary, *Not, *TypeOfExpr, *Increment:
		return precUnary
	}

	return precTerm
}

// expr renders x, parenthesized when it binds looser than min.
func (f formatter) expr(x Expr, depth, minPrec int) string {
	s := f.bare(x, depth)
	if precedence(x) < minPrec {
		return "(" + s + ")"
	}

	return s
}

func (f formatter) infix(op string, x, y Expr, prec, depth int) string {
	return f.expr(x, depth, prec) + " " + op + " " + f.expr(y, depth, prec+1)
}

func (f formatter) bare(x Expr, depth int) string {
	switch e := x.(type) {
	case *Constant:
		return literal(e.Value)

	case *Variable:
		return e.Name

	case *Unary:
		return e.Op + f.operand(e.X, depth)

	case *Not:
		return "!" + f.operand(e.X, depth)

	case *TypeOfExpr:
		return "typeof " + f.expr(e.X, depth, precUnary)

	case *Increment:
		op := "++"
		if e.Delta < 0 {
			op = "--"
		}

		if e.Prefix {
			return op + f.expr(e.Target, depth, precTerm)
		}

		return f.expr(e.Target, depth, precTerm) + op

	case *Binary:
		return f.infix(e.Op, e.X, e.Y, precedence(e), depth)

	case *CompareExpr:
		return f.infix(e.Op, e.X, e.Y, precCompare, depth)

	case *And:
		return f.infix("&&", e.X, e.Y, precAnd, depth)

	case *Or:
		return f.infix("||", e.X, e.Y, precOr, depth)

	case *InstanceOfExpr:
		return f.expr(e.X, depth, precOr) + " instanceof " + f.expr(e.Type, depth, 0)

	case *Dot:
		s := f.expr(e.X, depth, precTerm) + "." + e.Name
		if e.Call {
			s += "(" + f.list(e.Args, depth) + ")"
		}

		return s

	case *Indexed:
		return f.expr(e.X, depth, precTerm) + "[" + f.list(e.Args, depth) + "]"

	case *InvokeExpr:
		return f.expr(e.Callee, depth, precTerm) + "(" + f.list(e.Args, depth) + ")"

	case *NewExpr:
		return "new " + f.bare(e.Type, depth) + "(" + f.list(e.Args, depth) + ")"

	case *FunctionExpr:
		s := "function"
		if e.Name != "" {
			s += " " + e.Name
		}

		body := e.Body
		if body == nil {
			body = &Composite{}
		}

		return s + "(" + strings.Join(e.Params, ", ") + ") " + f.block(body, depth)

	case *ObjectLit:
		if len(e.Names) == 0 {
			return "{}"
		}

		fields := make([]string, len(e.Names))
		for i, name := range e.Names {
			key := name
			if !isIdentifier(name) {
				key = quote(name)
			}

			fields[i] = key + ": " + f.expr(e.Values[i], depth, 0)
		}

		return "{ " + strings.Join(fields, ", ") + " }"

	case *ArrayLit:
		return "[" + f.list(e.Elems, depth) + "]"
	}

	return "/* " + nodeName(x) + " */"
}

// operand renders the operand of a prefix operator. Nested prefix forms are
// parenthesized so that "- -x" never reads as a decrement.
func (f formatter) operand(x Expr, depth int) string {
	switch e := x.(type) {
	case *Unary, *Not:
		return "(" + f.bare(x, depth) + ")"
	case *Increment:
		if e.Prefix {
			return "(" + f.bare(x, depth) + ")"
		}
	}

	return f.expr(x, depth, precUnary)
}

func (f formatter) list(xs []Expr, depth int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = f.expr(x, depth, 0)
	}

	return strings.Join(parts, ", ")
}

// literal renders a constant so that it lexes back to the same value.
func literal(v Value) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}

		return s
	case string:
		return quote(v)
	}

	return quote(ToString(v))
}

var unescapes = map[rune]string{
	'"':  `\"`,
	'\\': `\\`,
	'\r': `\r`,
	'\n': `\n`,
	'\t': `\t`,
	'\f': `\f`,
	'\b': `\b`,
	'\a': `\a`,
	'\v': `\v`,
}

func quote(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		if esc, ok := unescapes[r]; ok {
			b.WriteString(esc)
		} else {
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}

	return s != ""
}

// nodeName returns the type name of n, such as "SetVariable".
func nodeName(n Node) string {
	if n == nil {
		return "nil"
	}

	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}

// ToMap converts the syntax tree to nested maps and slices. Every node is a
// map with a "node" key naming its type.
func (ast *AST) ToMap() map[string]any {
	if ast == nil || ast.Program == nil {
		return map[string]any{"hoisted": []any{}, "commands": []any{}}
	}

	return map[string]any{
		"hoisted":  nodeList(ast.Program.Hoisted),
		"commands": nodeList(ast.Program.Commands),
	}
}

func nodeList[N Node](ns []N) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = nodeMap(n)
	}

	return out
}

func nodeMap(n Node) any {
	if n == nil || reflect.ValueOf(n).IsNil() {
		return nil
	}

	m := map[string]any{
		"node": nodeName(n),
		"pos":  n.Pos().String(),
	}

	switch e := n.(type) {
	case *Constant:
		m["type"] = TypeOf(e.Value)
		if e.Value != Undefined {
			m["value"] = e.Value
		}
	case *Variable:
		m["name"] = e.Name
	case *Unary:
		m["op"], m["x"] = e.Op, nodeMap(e.X)
	case *Binary:
		m["op"], m["x"], m["y"] = e.Op, nodeMap(e.X), nodeMap(e.Y)
	case *CompareExpr:
		m["op"], m["x"], m["y"] = e.Op, nodeMap(e.X), nodeMap(e.Y)
	case *And:
		m["x"], m["y"] = nodeMap(e.X), nodeMap(e.Y)
	case *Or:
		m["x"], m["y"] = nodeMap(e.X), nodeMap(e.Y)
	case *Not:
		m["x"] = nodeMap(e.X)
	case *Increment:
		m["target"], m["delta"], m["prefix"] = nodeMap(e.Target), e.Delta, e.Prefix
	case *Dot:
		m["x"], m["name"] = nodeMap(e.X), e.Name
		if e.Call {
			m["args"] = nodeList(e.Args)
		}
	case *Indexed:
		m["x"], m["args"] = nodeMap(e.X), nodeList(e.Args)
	case *InvokeExpr:
		m["callee"], m["args"] = nodeMap(e.Callee), nodeList(e.Args)
	case *NewExpr:
		m["type"], m["args"] = nodeMap(e.Type), nodeList(e.Args)
	case *TypeOfExpr:
		m["x"] = nodeMap(e.X)
	case *InstanceOfExpr:
		m["x"], m["type"] = nodeMap(e.X), nodeMap(e.Type)
	case *FunctionExpr:
		if e.Name != "" {
			m["name"] = e.Name
		}

		m["params"], m["body"] = slices.Clone(e.Params), nodeMap(e.Body)
	case *ObjectLit:
		fields := make([]any, len(e.Names))
		for i, name := range e.Names {
			fields[i] = map[string]any{"name": name, "value": nodeMap(e.Values[i])}
		}

		m["fields"] = fields
	case *ArrayLit:
		m["elems"] = nodeList(e.Elems)
	case *Var:
		m["name"] = e.Name
	case *SetVariable:
		m["name"], m["value"] = e.Name, nodeMap(e.Value)
	case *Set:
		m["target"], m["value"] = nodeMap(e.Target), nodeMap(e.Value)
	case *SetArray:
		m["x"], m["args"], m["value"] = nodeMap(e.X), nodeList(e.Args), nodeMap(e.Value)
	case *ExprCommand:
		m["x"] = nodeMap(e.X)
	case *Return:
		m["x"] = nodeMap(e.X)
	case *If:
		m["cond"], m["then"], m["else"] = nodeMap(e.Cond), nodeMap(e.Then), nodeMap(e.Else)
	case *While:
		m["cond"], m["body"] = nodeMap(e.Cond), nodeMap(e.Body)
	case *For:
		m["init"], m["cond"] = nodeMap(e.Init), nodeMap(e.Cond)
		m["step"], m["body"] = nodeMap(e.Step), nodeMap(e.Body)
	case *ForEach:
		m["name"], m["iter"], m["body"] = e.Name, nodeMap(e.Iter), nodeMap(e.Body)
	case *Delete:
		m["x"] = nodeMap(e.X)
	case *Composite:
		if len(e.Hoisted) > 0 {
			m["hoisted"] = nodeList(e.Hoisted)
		}

		m["commands"] = nodeList(e.Commands)
	}

	return m
}

// treeWriter writes the lines of a debug tree and keeps the first write
// error.
type treeWriter struct {
	w   io.Writer
	err error
}

func (t *treeWriter) put(eol string, item ...string) {
	if t.err == nil {
		_, t.err = io.WriteString(t.w, strings.Join(item, ": ")+eol)
	}
}

// Print writes an indented debug tree of the program. It stops writing at
// the first error.
func (ast *AST) Print(_ context.Context, w io.Writer) error {
	t := &treeWriter{w: w}
	tree := ast.ToMap()

	for _, key := range []string{"hoisted", "commands"} {
		t.put(":\n", key)

		for _, n := range tree[key].([]any) {
			printNode(t, n, 1)
		}
	}

	return t.err
}

func printNode(t *treeWriter, n any, depth int) {
	prefix := strings.Repeat("  ", depth)

	m, ok := n.(map[string]any)
	if !ok {
		t.put("\n", prefix+"(nil)")

		return
	}

	t.put("\n", prefix+m["node"].(string), m["pos"].(string))

	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "node" && k != "pos" {
			keys = append(keys, k)
		}
	}

	slices.Sort(keys)

	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			t.put(":\n", prefix+"  "+k)
			printNode(t, v, depth+2)

		case []any:
			t.put(":\n", prefix+"  "+k)

			for _, item := range v {
				if field, ok := item.(map[string]any); ok && field["node"] == nil {
					t.put("\n", prefix+"    "+fmt.Sprint(field["name"]))
					printNode(t, field["value"], depth+3)

					continue
				}

				printNode(t, item, depth+2)
			}

		case nil:
			t.put("\n", prefix+"  "+k, "(nil)")

		default:
			t.put("\n", prefix+"  "+k, fmt.Sprint(v))
		}
	}
}
