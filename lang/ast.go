package lang

// Node is implemented by every expression and command in the tree.
type Node interface {
	Pos() Position
}

// Expr is an expression node. Evaluating it yields a [Value].
type Expr interface {
	Node
	exprNode()
}

// Command is a statement node. Executing it may set the return signal of
// the enclosing function's [Env].
type Command interface {
	Node
	commandNode()
}

type expr struct{ pos Position }

func (e expr) Pos() Position { return e.pos }
func (expr) exprNode()       {}

type stmt struct{ pos Position }

func (s stmt) Pos() Position { return s.pos }
func (stmt) commandNode()    {}

// Expressions.
type (
	// Constant is a literal: integer, real, string, boolean, null or
	// undefined.
	Constant struct {
		expr
		Value Value
	}

	// Variable reads a name from the environment chain.
	Variable struct {
		expr
		Name string
	}

	// Unary is prefix "+" or "-".
	Unary struct {
		expr
		Op string
		X  Expr
	}

	// Binary is one of "+ - * / \ %".
	Binary struct {
		expr
		Op   string
		X, Y Expr
	}

	// CompareExpr is one of "< > <= >= == != === !==".
	CompareExpr struct {
		expr
		Op   string
		X, Y Expr
	}

	And struct {
		expr
		X, Y Expr
	}

	Or struct {
		expr
		X, Y Expr
	}

	Not struct {
		expr
		X Expr
	}

	// Increment is "++" or "--" applied before (Prefix) or after an lvalue.
	Increment struct {
		expr
		Target Expr
		Delta  int
		Prefix bool
	}

	// Dot is a member access. When Call is set the member is invoked with
	// Args and the object bound as this.
	Dot struct {
		expr
		X    Expr
		Name string
		Args []Expr
		Call bool
	}

	// Indexed is a bracketed member access, x[i].
	Indexed struct {
		expr
		X    Expr
		Args []Expr
	}

	// InvokeExpr calls the value of Callee.
	InvokeExpr struct {
		expr
		Callee Expr
		Args   []Expr
	}

	// NewExpr constructs an instance of the function or host type named by Type.
	NewExpr struct {
		expr
		Type Expr
		Args []Expr
	}

	TypeOfExpr struct {
		expr
		X Expr
	}

	InstanceOfExpr struct {
		expr
		X    Expr
		Type Expr
	}

	// FunctionExpr creates a closure over the environment it is evaluated
	// in. A named function also binds its name in that environment.
	FunctionExpr struct {
		expr
		Name   string
		Params []string
		Body   *Composite
	}

	ObjectLit struct {
		expr
		Names  []string
		Values []Expr
	}

	ArrayLit struct {
		expr
		Elems []Expr
	}
)

// Commands.
type (
	// Var declares Name in the current environment as undefined.
	Var struct {
		stmt
		Name string
	}

	// SetVariable assigns the initializer of a var declaration.
	SetVariable struct {
		stmt
		Name  string
		Value Expr
	}

	// Set assigns to a variable or member target.
	Set struct {
		stmt
		Target Expr
		Value  Expr
	}

	// SetArray assigns to an indexed target, x[i] = v.
	SetArray struct {
		stmt
		X     Expr
		Args  []Expr
		Value Expr
	}

	// ExprCommand evaluates an expression for its side effects.
	ExprCommand struct {
		stmt
		X Expr
	}

	// Return sets the return signal. X is nil for a bare return.
	Return struct {
		stmt
		X Expr
	}

	If struct {
		stmt
		Cond Expr
		Then Command
		Else Command
	}

	While struct {
		stmt
		Cond Expr
		Body Command
	}

	// For is a three-clause loop. Any of Init, Cond and Step may be nil.
	For struct {
		stmt
		Init Command
		Cond Expr
		Step Command
		Body Command
	}

	// ForEach binds Name to each own enumerable name of an object, or to
	// each element of an array.
	ForEach struct {
		stmt
		Name string
		Iter Expr
		Body Command
	}

	Delete struct {
		stmt
		X Expr
	}

	// Composite runs Hoisted declarations first, then Commands in order.
	Composite struct {
		stmt
		Hoisted  []Command
		Commands []Command
	}

	NoOperation struct{ stmt }
)

// NoOp is the empty statement.
var NoOp Command = &NoOperation{}

// AST is a parsed program.
type AST struct {
	Program *Composite
	Source  string
}

// Len returns the number of hoisted and positional top-level commands.
func (ast *AST) Len() (hoisted, positional int) {
	if ast == nil || ast.Program == nil {
		return 0, 0
	}

	return len(ast.Program.Hoisted), len(ast.Program.Commands)
}

func isNoOp(cmd Command) bool {
	switch c := cmd.(type) {
	case nil, *NoOperation:
		return true
	case *Composite:
		return len(c.Hoisted) == 0 && len(c.Commands) == 0
	}

	return false
}

func isHoisted(cmd Command) bool {
	switch c := cmd.(type) {
	case *Var:
		return true
	case *ExprCommand:
		fn, ok := c.X.(*FunctionExpr)

		return ok && fn.Name != ""
	}

	return false
}
