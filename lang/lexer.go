package lang

import (
	"log/slog"
	"strings"
	"unicode"
)

// operators lists operator spellings longest first, so that the first
// prefix match is also the longest.
var operators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"=", "<", ">", "+", "-", "*", "/", "\\", "%", "!",
}

const delimiters = "()[]{};,:."

// Lexer converts script source into tokens.
//
// Tokens returned by [Lexer.Next] can be handed back with [Lexer.PushBack];
// pushed tokens are replayed in LIFO order before any new input is read,
// which gives the parser unlimited lookahead.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	col    int
	pushed []*Token
}

// NewLexer returns a Lexer reading from src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// Next returns the next token, or nil at end of input.
func (l *Lexer) Next() (*Token, error) {
	if n := len(l.pushed); n > 0 {
		tok := l.pushed[n-1]
		l.pushed = l.pushed[:n-1]

		return tok, nil
	}

	if err := l.skipSpace(); err != nil {
		return nil, err
	}

	if l.eof() {
		return nil, nil
	}

	pos := l.position()
	ch := l.peek()

	switch {
	case ch == '"' || ch == '\'':
		return l.scanString(pos)

	case unicode.IsDigit(ch):
		return l.scanNumber(pos), nil

	case ch == '_' || unicode.IsLetter(ch):
		return l.scanName(pos), nil

	case strings.ContainsRune(delimiters, ch):
		l.advance()

		return &Token{Kind: KindDelimiter, Text: string(ch), Pos: pos}, nil
	}

	for _, op := range operators {
		if l.hasPrefix(op) {
			for range len(op) {
				l.advance()
			}

			return &Token{Kind: KindOperator, Text: op, Pos: pos}, nil
		}
	}

	l.advance()

	return nil, ErrUnexpected.
		WithMessage("Unexpected '" + string(ch) + "'").
		WithPosition(pos)
}

// PushBack returns tok to the lexer. A nil token is ignored.
func (l *Lexer) PushBack(tok *Token) {
	if tok != nil {
		l.pushed = append(l.pushed, tok)
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (*Token, error) {
	tok, err := l.Next()
	if err != nil {
		return nil, err
	}

	l.PushBack(tok)

	return tok, nil
}

// Tokens drains the lexer and returns every remaining token.
func (l *Lexer) Tokens() ([]*Token, error) {
	var toks []*Token

	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}

		if tok == nil {
			return toks, nil
		}

		toks = append(toks, tok)
	}
}

func (l *Lexer) scanName(pos Position) *Token {
	var b strings.Builder

	for !l.eof() {
		ch := l.peek()
		if ch != '_' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}

		b.WriteRune(ch)
		l.advance()
	}

	return &Token{Kind: KindName, Text: b.String(), Pos: pos}
}

// scanNumber reads digits with at most one decimal point. The point is only
// taken when a digit follows it, so "42.foo" lexes as 42 . foo.
func (l *Lexer) scanNumber(pos Position) *Token {
	var b strings.Builder

	kind := KindInteger

	for !l.eof() {
		ch := l.peek()

		if ch == '.' && kind == KindInteger && unicode.IsDigit(l.peekAt(1)) {
			kind = KindReal
		} else if !unicode.IsDigit(ch) {
			break
		}

		b.WriteRune(ch)
		l.advance()
	}

	return &Token{Kind: kind, Text: b.String(), Pos: pos}
}

var escapes = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
	'r':  '\r',
	'n':  '\n',
	't':  '\t',
	'f':  '\f',
	'b':  '\b',
	'a':  '\a',
	'v':  '\v',
}

func (l *Lexer) scanString(pos Position) (*Token, error) {
	quote := l.peek()
	l.advance()

	var b strings.Builder

	for !l.eof() {
		ch := l.peek()
		l.advance()

		switch {
		case ch == quote:
			return &Token{Kind: KindString, Text: b.String(), Pos: pos}, nil

		case ch == '\\' && !l.eof():
			next := l.peek()
			l.advance()

			if r, ok := escapes[next]; ok {
				b.WriteRune(r)
			} else {
				b.WriteRune('\\')
				b.WriteRune(next)
			}

		default:
			b.WriteRune(ch)
		}
	}

	return nil, ErrUnterminated.
		With(slog.String("literal", "string")).
		WithPosition(pos)
}

func (l *Lexer) skipSpace() error {
	for !l.eof() {
		switch ch := l.peek(); {
		case unicode.IsSpace(ch):
			l.advance()

		case l.hasPrefix("//"):
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}

		case l.hasPrefix("/*"):
			pos := l.position()

			l.advance()
			l.advance()

			for !l.hasPrefix("*/") {
				if l.eof() {
					return ErrUnterminated.
						With(slog.String("literal", "comment")).
						WithPosition(pos)
				}

				l.advance()
			}

			l.advance()
			l.advance()

		default:
			return nil
		}
	}

	return nil
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() rune { return l.peekAt(0) }

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}

	return l.src[l.pos+n]
}

func (l *Lexer) hasPrefix(s string) bool {
	i := l.pos
	for _, r := range s {
		if i >= len(l.src) || l.src[i] != r {
			return false
		}

		i++
	}

	return true
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}

	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	l.pos++
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.col}
}
