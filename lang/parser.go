package lang

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
)

var reserved = []string{"this", "null", "true", "false", "undefined"}

// Parser builds commands and expressions from a [Lexer] by recursive
// descent.
//
// [Parser.ParseCommands] opens a hoisting scope: var declarations and named
// function statements found anywhere in the sequence, outside of nested
// function bodies, are collected into the resulting [Composite.Hoisted].
// [Parser.ParseCommand] used on its own parses without hoisting.
type Parser struct {
	lex     *Lexer
	hoisted *[]Command
}

// NewParser returns a Parser reading src.
func NewParser(src string) *Parser {
	return &Parser{lex: NewLexer(src)}
}

// ParseString parses a complete program from s.
func ParseString(ctx context.Context, s string, opts ...Option) (*AST, error) {
	cfg := makeConfig(opts...)

	prog, err := NewParser(s).ParseCommands()
	if err != nil {
		cfg.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("hoisted", len(prog.Hoisted)),
		slog.Int("commands", len(prog.Commands)),
	)

	return &AST{Program: prog, Source: s}, nil
}

// ParseCommands parses every remaining command into a hoisting
// [Composite].
func (p *Parser) ParseCommands() (*Composite, error) {
	outer := p.hoisted
	defer func() { p.hoisted = outer }()

	hoisted := []Command{}
	p.hoisted = &hoisted

	var cmds []Command

	for {
		cmd, err := p.ParseCommand()
		if err != nil {
			return nil, err
		}

		if cmd == nil {
			return &Composite{Hoisted: hoisted, Commands: cmds}, nil
		}

		p.add(&cmds, cmd)
	}
}

// ParseCommand parses one command, or returns nil at end of input.
func (p *Parser) ParseCommand() (Command, error) {
	tok, err := p.lex.Next()
	if err != nil || tok == nil {
		return nil, err
	}

	if tok.Kind == KindName {
		switch tok.Text {
		case "if":
			return p.parseIf(tok.Pos)
		case "while":
			return p.parseWhile(tok.Pos)
		case "for":
			return p.parseFor(tok.Pos)
		case "return":
			return p.parseReturn(tok.Pos)
		case "var":
			return p.parseVar(tok.Pos)
		case "delete":
			return p.parseDelete(tok.Pos)
		}
	}

	if tok.Is(KindDelimiter, "{") {
		return p.parseBlock(tok.Pos)
	}

	if tok.Is(KindDelimiter, ";") {
		return NoOp, nil
	}

	p.lex.PushBack(tok)

	cmd, err := p.parseSimpleCommand()
	if err != nil {
		return nil, err
	}

	if cmd == nil {
		return nil, unexpected(tok)
	}

	if err := p.expect(KindDelimiter, ";"); err != nil {
		return nil, err
	}

	return cmd, nil
}

// ParseExpression parses one expression, or returns nil at end of input.
func (p *Parser) ParseExpression() (Expr, error) {
	x, err := p.parseOr()
	if err != nil || x == nil {
		return x, err
	}

	if ok, err := p.peekIs(KindName, "instanceof"); err != nil || !ok {
		return x, err
	}

	tok, _ := p.lex.Next()

	typ, err := p.require(p.ParseExpression())
	if err != nil {
		return nil, err
	}

	return &InstanceOfExpr{expr: expr{tok.Pos}, X: x, Type: typ}, nil
}

func (p *Parser) add(cmds *[]Command, cmd Command) {
	switch {
	case p.hoisted != nil && isHoisted(cmd):
		*p.hoisted = append(*p.hoisted, cmd)
	case !isNoOp(cmd):
		*cmds = append(*cmds, cmd)
	}
}

func (p *Parser) parseSimpleCommand() (Command, error) {
	if tok, err := p.lex.Peek(); err != nil {
		return nil, err
	} else if tok.Is(KindName, "var") {
		_, _ = p.lex.Next()

		return p.parseVar(tok.Pos)
	}

	x, err := p.ParseExpression()
	if err != nil || x == nil {
		return nil, err
	}

	if ok, err := p.peekIs(KindOperator, "="); err != nil {
		return nil, err
	} else if ok {
		_, _ = p.lex.Next()

		val, err := p.require(p.ParseExpression())
		if err != nil {
			return nil, err
		}

		switch t := x.(type) {
		case *Indexed:
			return &SetArray{stmt: stmt{x.Pos()}, X: t.X, Args: t.Args, Value: val}, nil
		case *Variable:
			if err := validName(t.Name, t.Pos()); err != nil {
				return nil, err
			}
		}

		return &Set{stmt: stmt{x.Pos()}, Target: x, Value: val}, nil
	}

	// A named function statement needs no trailing semicolon.
	if fn, ok := x.(*FunctionExpr); ok && fn.Name != "" {
		p.lex.PushBack(&Token{Kind: KindDelimiter, Text: ";", Pos: fn.Pos()})
	}

	return &ExprCommand{stmt: stmt{x.Pos()}, X: x}, nil
}

func (p *Parser) parseVar(pos Position) (Command, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}

	if err := validName(name, pos); err != nil {
		return nil, err
	}

	var val Expr

	if ok, err := p.peekIs(KindOperator, "="); err != nil {
		return nil, err
	} else if ok {
		_, _ = p.lex.Next()

		if val, err = p.require(p.ParseExpression()); err != nil {
			return nil, err
		}
	}

	if err := p.expect(KindDelimiter, ";"); err != nil {
		return nil, err
	}

	decl := &Var{stmt: stmt{pos}, Name: name}

	var init Command = NoOp
	if val != nil {
		init = &SetVariable{stmt: stmt{pos}, Name: name, Value: val}
	}

	if p.hoisted != nil {
		*p.hoisted = append(*p.hoisted, decl)

		return init, nil
	}

	if val == nil {
		return decl, nil
	}

	return &Composite{stmt: stmt{pos}, Commands: []Command{decl, init}}, nil
}

func (p *Parser) parseBlock(pos Position) (*Composite, error) {
	var cmds []Command

	for {
		if ok, err := p.peekIs(KindDelimiter, "}"); err != nil {
			return nil, err
		} else if ok {
			_, _ = p.lex.Next()

			return &Composite{stmt: stmt{pos}, Commands: cmds}, nil
		}

		cmd, err := p.ParseCommand()
		if err != nil {
			return nil, err
		}

		if cmd == nil {
			return nil, p.expected("}", nil)
		}

		p.add(&cmds, cmd)
	}
}

func (p *Parser) parseIf(pos Position) (Command, error) {
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	then, err := p.requireCommand()
	if err != nil {
		return nil, err
	}

	cmd := &If{stmt: stmt{pos}, Cond: cond, Then: then}

	if ok, err := p.peekIs(KindName, "else"); err != nil || !ok {
		return cmd, err
	}

	_, _ = p.lex.Next()

	if cmd.Else, err = p.requireCommand(); err != nil {
		return nil, err
	}

	return cmd, nil
}

func (p *Parser) parseWhile(pos Position) (Command, error) {
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	body, err := p.requireCommand()
	if err != nil {
		return nil, err
	}

	return &While{stmt: stmt{pos}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseCondition() (Expr, error) {
	if err := p.expect(KindDelimiter, "("); err != nil {
		return nil, err
	}

	cond, err := p.require(p.ParseExpression())
	if err != nil {
		return nil, err
	}

	if err := p.expect(KindDelimiter, ")"); err != nil {
		return nil, err
	}

	return cond, nil
}

func (p *Parser) parseFor(pos Position) (Command, error) {
	if err := p.expect(KindDelimiter, "("); err != nil {
		return nil, err
	}

	first, err := p.lex.Next()
	if err != nil {
		return nil, err
	}

	switch {
	case first.Is(KindName, "var"):
		name, err := p.lex.Next()
		if err != nil {
			return nil, err
		}

		if in, err := p.peekIs(KindName, "in"); err != nil {
			return nil, err
		} else if in && name != nil && name.Kind == KindName {
			return p.parseForIn(pos, name.Text, true)
		}

		p.lex.PushBack(name)

	case first != nil && first.Kind == KindName:
		if in, err := p.peekIs(KindName, "in"); err != nil {
			return nil, err
		} else if in {
			return p.parseForIn(pos, first.Text, false)
		}
	}

	p.lex.PushBack(first)

	cmd := &For{stmt: stmt{pos}}

	if cmd.Init, err = p.parseForClause(";"); err != nil {
		return nil, err
	}

	// A var initializer consumes its own semicolon.
	if !first.Is(KindName, "var") && cmd.Init != nil {
		if err := p.expect(KindDelimiter, ";"); err != nil {
			return nil, err
		}
	}

	if ok, err := p.peekIs(KindDelimiter, ";"); err != nil {
		return nil, err
	} else if !ok {
		if cmd.Cond, err = p.require(p.ParseExpression()); err != nil {
			return nil, err
		}
	}

	if err := p.expect(KindDelimiter, ";"); err != nil {
		return nil, err
	}

	if cmd.Step, err = p.parseForClause(")"); err != nil {
		return nil, err
	}

	if err := p.expect(KindDelimiter, ")"); err != nil {
		return nil, err
	}

	if cmd.Body, err = p.requireCommand(); err != nil {
		return nil, err
	}

	return cmd, nil
}

// parseForClause parses an optional simple command. When the clause is
// empty the terminating delimiter is consumed for the init clause only.
func (p *Parser) parseForClause(end string) (Command, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	if tok.Is(KindDelimiter, end) {
		if end == ";" {
			_, _ = p.lex.Next()
		}

		return nil, nil
	}

	cmd, err := p.parseSimpleCommand()
	if err != nil {
		return nil, err
	}

	if cmd == nil {
		return nil, unexpected(tok)
	}

	return cmd, nil
}

func (p *Parser) parseForIn(pos Position, name string, declare bool) (Command, error) {
	if err := p.expect(KindName, "in"); err != nil {
		return nil, err
	}

	iter, err := p.require(p.ParseExpression())
	if err != nil {
		return nil, err
	}

	if err := p.expect(KindDelimiter, ")"); err != nil {
		return nil, err
	}

	body, err := p.requireCommand()
	if err != nil {
		return nil, err
	}

	each := &ForEach{stmt: stmt{pos}, Name: name, Iter: iter, Body: body}
	if !declare {
		return each, nil
	}

	return &Composite{
		stmt:     stmt{pos},
		Commands: []Command{&Var{stmt: stmt{pos}, Name: name}, each},
	}, nil
}

func (p *Parser) parseReturn(pos Position) (Command, error) {
	if ok, err := p.peekIs(KindDelimiter, ";"); err != nil {
		return nil, err
	} else if ok {
		_, _ = p.lex.Next()

		return &Return{stmt: stmt{pos}}, nil
	}

	x, err := p.require(p.ParseExpression())
	if err != nil {
		return nil, err
	}

	if err := p.expect(KindDelimiter, ";"); err != nil {
		return nil, err
	}

	return &Return{stmt: stmt{pos}, X: x}, nil
}

func (p *Parser) parseDelete(pos Position) (Command, error) {
	x, err := p.require(p.ParseExpression())
	if err != nil {
		return nil, err
	}

	if err := p.expect(KindDelimiter, ";"); err != nil {
		return nil, err
	}

	return &Delete{stmt: stmt{pos}, X: x}, nil
}

// binaryLevel parses a left-associative chain of operators from ops, with
// operands parsed by next.
func (p *Parser) binaryLevel(
	next func() (Expr, error),
	ops []string,
	build func(op *Token, x, y Expr) Expr,
) (Expr, error) {
	x, err := next()
	if err != nil || x == nil {
		return x, err
	}

	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}

		if tok == nil || tok.Kind != KindOperator || !slices.Contains(ops, tok.Text) {
			return x, nil
		}

		_, _ = p.lex.Next()

		y, err := p.require(next())
		if err != nil {
			return nil, err
		}

		x = build(tok, x, y)
	}
}

func (p *Parser) parseOr() (Expr, error) {
	return p.binaryLevel(p.parseAnd, []string{"||"},
		func(op *Token, x, y Expr) Expr { return &Or{expr: expr{op.Pos}, X: x, Y: y} })
}

func (p *Parser) parseAnd() (Expr, error) {
	return p.binaryLevel(p.parseCompare, []string{"&&"},
		func(op *Token, x, y Expr) Expr { return &And{expr: expr{op.Pos}, X: x, Y: y} })
}

func (p *Parser) parseCompare() (Expr, error) {
	return p.binaryLevel(p.parseAdditive,
		[]string{"<", ">", "<=", ">=", "==", "!=", "===", "!=="},
		func(op *Token, x, y Expr) Expr {
			return &CompareExpr{expr: expr{op.Pos}, Op: op.Text, X: x, Y: y}
		})
}

func (p *Parser) parseAdditive() (Expr, error) {
	return p.binaryLevel(p.parseMultiplicative, []string{"+", "-"}, binary)
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	return p.binaryLevel(p.parseUnary, []string{"*", "/", "\\", "%"}, binary)
}

func binary(op *Token, x, y Expr) Expr {
	return &Binary{expr: expr{op.Pos}, Op: op.Text, X: x, Y: y}
}

func (p *Parser) parseUnary() (Expr, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	if tok != nil && tok.Kind == KindOperator {
		switch tok.Text {
		case "+", "-", "!":
			_, _ = p.lex.Next()

			x, err := p.require(p.parseUnary())
			if err != nil {
				return nil, err
			}

			if tok.Text == "!" {
				return &Not{expr: expr{tok.Pos}, X: x}, nil
			}

			return &Unary{expr: expr{tok.Pos}, Op: tok.Text, X: x}, nil

		case "++", "--":
			_, _ = p.lex.Next()

			x, err := p.require(p.parseTerm())
			if err != nil {
				return nil, err
			}

			return &Increment{expr: expr{tok.Pos}, Target: x, Delta: delta(tok.Text), Prefix: true}, nil
		}
	}

	x, err := p.parseTerm()
	if err != nil || x == nil {
		return x, err
	}

	post, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	if post.Is(KindOperator, "++") || post.Is(KindOperator, "--") {
		_, _ = p.lex.Next()

		return &Increment{expr: expr{post.Pos}, Target: x, Delta: delta(post.Text)}, nil
	}

	return x, nil
}

func delta(op string) int {
	if op == "--" {
		return -1
	}

	return 1
}

func (p *Parser) parseTerm() (Expr, error) {
	isNew, err := p.peekIs(KindName, "new")
	if err != nil {
		return nil, err
	}

	var x Expr

	if isNew {
		x, err = p.parseNew()
	} else {
		x, err = p.parseSimpleTerm()
	}

	if err != nil || x == nil {
		return x, err
	}

	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}

		switch {
		case tok.Is(KindDelimiter, "."):
			_, _ = p.lex.Next()

			name, err := p.parseName()
			if err != nil {
				return nil, err
			}

			dot := &Dot{expr: expr{tok.Pos}, X: x, Name: name}

			if ok, err := p.peekIs(KindDelimiter, "("); err != nil {
				return nil, err
			} else if ok {
				if dot.Args, err = p.parseList("(", ")"); err != nil {
					return nil, err
				}

				dot.Call = true
			}

			x = dot

		case tok.Is(KindDelimiter, "("):
			args, err := p.parseList("(", ")")
			if err != nil {
				return nil, err
			}

			x = &InvokeExpr{expr: expr{tok.Pos}, Callee: x, Args: args}

		case tok.Is(KindDelimiter, "["):
			args, err := p.parseList("[", "]")
			if err != nil {
				return nil, err
			}

			x = &Indexed{expr: expr{tok.Pos}, X: x, Args: args}

		default:
			return x, nil
		}
	}
}

func (p *Parser) parseNew() (Expr, error) {
	tok, _ := p.lex.Next()

	name, err := p.parseName()
	if err != nil {
		return nil, err
	}

	var typ Expr = &Variable{expr: expr{tok.Pos}, Name: name}

	for {
		if ok, err := p.peekIs(KindDelimiter, "."); err != nil {
			return nil, err
		} else if !ok {
			break
		}

		dot, _ := p.lex.Next()

		if name, err = p.parseName(); err != nil {
			return nil, err
		}

		typ = &Dot{expr: expr{dot.Pos}, X: typ, Name: name}
	}

	n := &NewExpr{expr: expr{tok.Pos}, Type: typ}

	if ok, err := p.peekIs(KindDelimiter, "("); err != nil {
		return nil, err
	} else if ok {
		if n.Args, err = p.parseList("(", ")"); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func (p *Parser) parseSimpleTerm() (Expr, error) {
	tok, err := p.lex.Next()
	if err != nil || tok == nil {
		return nil, err
	}

	at := expr{tok.Pos}

	switch tok.Kind {
	case KindInteger:
		if n, err := strconv.ParseInt(tok.Text, 10, 0); err == nil {
			return &Constant{expr: at, Value: int(n)}, nil
		}

		fallthrough

	case KindReal:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, ErrUnexpected.Wrap(err).WithPosition(tok.Pos)
		}

		return &Constant{expr: at, Value: f}, nil

	case KindString:
		return &Constant{expr: at, Value: tok.Text}, nil

	case KindDelimiter:
		switch tok.Text {
		case "(":
			x, err := p.require(p.ParseExpression())
			if err != nil {
				return nil, err
			}

			if err := p.expect(KindDelimiter, ")"); err != nil {
				return nil, err
			}

			return x, nil

		case "{":
			return p.parseObject(tok.Pos)

		case "[":
			p.lex.PushBack(tok)

			elems, err := p.parseList("[", "]")
			if err != nil {
				return nil, err
			}

			return &ArrayLit{expr: at, Elems: elems}, nil
		}

	case KindName:
		switch tok.Text {
		case "function":
			return p.parseFunction(tok.Pos)
		case "typeof":
			x, err := p.require(p.parseUnary())
			if err != nil {
				return nil, err
			}

			return &TypeOfExpr{expr: at, X: x}, nil
		case "null":
			return &Constant{expr: at, Value: nil}, nil
		case "undefined":
			return &Constant{expr: at, Value: Undefined}, nil
		case "true":
			return &Constant{expr: at, Value: true}, nil
		case "false":
			return &Constant{expr: at, Value: false}, nil
		}

		return &Variable{expr: at, Name: tok.Text}, nil
	}

	return nil, unexpected(tok)
}

func (p *Parser) parseFunction(pos Position) (Expr, error) {
	fn := &FunctionExpr{expr: expr{pos}}

	if tok, err := p.lex.Peek(); err != nil {
		return nil, err
	} else if tok != nil && tok.Kind == KindName {
		_, _ = p.lex.Next()
		fn.Name = tok.Text
	}

	outer := p.hoisted
	defer func() { p.hoisted = outer }()

	hoisted := []Command{}
	p.hoisted = &hoisted

	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}

	open, err := p.lex.Next()
	if err != nil {
		return nil, err
	}

	if !open.Is(KindDelimiter, "{") {
		return nil, p.expected("{", open)
	}

	body, err := p.parseBlock(open.Pos)
	if err != nil {
		return nil, err
	}

	body.Hoisted = hoisted
	fn.Params = params
	fn.Body = body

	return fn, nil
}

func (p *Parser) parseParams() ([]string, error) {
	if err := p.expect(KindDelimiter, "("); err != nil {
		return nil, err
	}

	names := []string{}

	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}

		if tok == nil || tok.Kind != KindName {
			break
		}

		_, _ = p.lex.Next()

		if err := validName(tok.Text, tok.Pos); err != nil {
			return nil, err
		}

		names = append(names, tok.Text)

		if ok, err := p.peekIs(KindDelimiter, ")"); err != nil {
			return nil, err
		} else if ok {
			break
		}

		if err := p.expect(KindDelimiter, ","); err != nil {
			return nil, err
		}
	}

	return names, p.expect(KindDelimiter, ")")
}

func (p *Parser) parseObject(pos Position) (Expr, error) {
	obj := &ObjectLit{expr: expr{pos}}

	for {
		if ok, err := p.peekIs(KindDelimiter, "}"); err != nil {
			return nil, err
		} else if ok {
			_, _ = p.lex.Next()

			return obj, nil
		}

		if len(obj.Names) > 0 {
			if err := p.expect(KindDelimiter, ","); err != nil {
				return nil, err
			}
		}

		key, err := p.lex.Next()
		if err != nil {
			return nil, err
		}

		if key == nil || (key.Kind != KindName && key.Kind != KindString) {
			return nil, expectedName(key)
		}

		if err := p.expect(KindDelimiter, ":"); err != nil {
			return nil, err
		}

		val, err := p.require(p.ParseExpression())
		if err != nil {
			return nil, err
		}

		obj.Names = append(obj.Names, key.Text)
		obj.Values = append(obj.Values, val)
	}
}

// parseList parses a comma-separated expression list between open and
// close delimiters.
func (p *Parser) parseList(open, close string) ([]Expr, error) {
	if err := p.expect(KindDelimiter, open); err != nil {
		return nil, err
	}

	list := []Expr{}

	for {
		if ok, err := p.peekIs(KindDelimiter, close); err != nil {
			return nil, err
		} else if ok {
			_, _ = p.lex.Next()

			return list, nil
		}

		if len(list) > 0 {
			if err := p.expect(KindDelimiter, ","); err != nil {
				return nil, err
			}
		}

		x, err := p.require(p.ParseExpression())
		if err != nil {
			return nil, err
		}

		list = append(list, x)
	}
}

func (p *Parser) parseName() (string, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return "", err
	}

	if tok == nil || tok.Kind != KindName {
		return "", expectedName(tok)
	}

	return tok.Text, nil
}

func (p *Parser) peekIs(kind Kind, text string) (bool, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return false, err
	}

	return tok.Is(kind, text), nil
}

func (p *Parser) expect(kind Kind, text string) error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}

	if !tok.Is(kind, text) {
		return p.expected(text, tok)
	}

	return nil
}

// require turns a missing expression or command into a syntax error.
func (p *Parser) require(x Expr, err error) (Expr, error) {
	if err != nil {
		return nil, err
	}

	if x == nil {
		return nil, p.endOfInput()
	}

	return x, nil
}

func (p *Parser) requireCommand() (Command, error) {
	cmd, err := p.ParseCommand()
	if err != nil {
		return nil, err
	}

	if cmd == nil {
		return nil, p.endOfInput()
	}

	return cmd, nil
}

func (p *Parser) expected(text string, found *Token) error {
	pos := p.lex.position()
	if found != nil {
		pos = found.Pos
	}

	return ErrExpected.
		WithMessage("Expected '" + text + "'").
		With(slog.Any("found", found)).
		WithPosition(pos)
}

func (p *Parser) endOfInput() error {
	return ErrUnexpected.
		WithMessage("Unexpected end of input").
		WithPosition(p.lex.position())
}

func unexpected(tok *Token) error {
	if tok == nil {
		return ErrUnexpected.WithMessage("Unexpected end of input")
	}

	return ErrUnexpected.
		WithMessage("Unexpected '" + tok.Text + "'").
		WithPosition(tok.Pos)
}

func expectedName(tok *Token) error {
	err := ErrExpectedName.With(slog.Any("found", tok))
	if tok != nil {
		return err.WithPosition(tok.Pos)
	}

	return err
}

func validName(name string, pos Position) error {
	if slices.Contains(reserved, name) {
		return ErrInvalidName.
			WithMessage("Invalid name '" + name + "'").
			WithPosition(pos)
	}

	return nil
}
