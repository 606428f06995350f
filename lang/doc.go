// Package lang implements ajs, a small dynamically typed scripting language
// with closures, hoisting and prototype-based objects, designed to be
// embedded in Go programs.
//
// # Grammar
//
// Informal EBNF:
//
//	Program     → Command* EOF
//	Command     → 'var' Name ('=' Expr)? ';'
//	            | 'if' '(' Expr ')' Command ('else' Command)?
//	            | 'while' '(' Expr ')' Command
//	            | 'for' '(' Simple? ';' Expr? ';' Simple? ')' Command
//	            | 'for' '(' 'var'? Name 'in' Expr ')' Command
//	            | 'return' Expr? ';'
//	            | 'delete' Expr ';'
//	            | '{' Command* '}'
//	            | Simple ';'
//	            | ';'
//	Simple      → Expr ('=' Expr)?
//	Expr        → Or ('instanceof' Expr)?
//	Or          → And ('||' And)*
//	And         → Compare ('&&' Compare)*
//	Compare     → Additive (('<'|'>'|'<='|'>='|'=='|'!='|'==='|'!==') Additive)*
//	Additive    → Multiplicative (('+'|'-') Multiplicative)*
//	Multiplicative → Unary (('*'|'/'|'\'|'%') Unary)*
//	Unary       → ('+'|'-'|'!') Unary | ('++'|'--') Term | Term ('++'|'--')?
//	Term        → ('new' Name ('.' Name)* Args? | Simple) Suffix*
//	Suffix      → '.' Name Args? | Args | '[' List ']'
//
// Integer and real literals, single or double quoted strings, object
// literals ({a: 1, "b": 2}), array literals, function expressions, typeof,
// null, undefined, true and false are the simple terms.
//
// # Scoping
//
// Every function call gets a fresh [Env] chained to the Env the function
// was created in. Blocks and loops share the Env of the enclosing function.
// var declarations and named function statements are hoisted to the top of
// the enclosing function body, so both are visible before their textual
// position.
//
// # Objects
//
// Objects delegate failed property lookups to the "prototype" object of
// their associated [Function], recursively. Assignments always write to the
// object itself. Arrays compute "length" from their elements; strings
// compute it from their runes.
//
// # Embedding
//
//	rt := lang.New(lang.WithOutput(os.Stdout))
//	v, err := rt.Eval(ctx, `function sq(x) { return x * x; } sq(7);`)
//
// Host values enter scripts through [WithGlobals] and [WithBridge]; see the
// host package for a reflection-based [Bridge].
package lang
