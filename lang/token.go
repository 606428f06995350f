package lang

import (
	"iter"
	"log/slog"
	"strconv"
)

// Kind classifies a [Token].
type Kind int

const (
	KindName      Kind = iota + 1 // name
	KindInteger                   // integer
	KindReal                      // real
	KindString                    // string
	KindOperator                  // operator
	KindDelimiter                 // delimiter
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindOperator:
		return "operator"
	case KindDelimiter:
		return "delimiter"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Kinds returns an iterator over all token kinds.
func Kinds() iter.Seq[Kind] {
	return func(yield func(Kind) bool) {
		for k := KindName; k <= KindDelimiter; k++ {
			if !yield(k) {
				return
			}
		}
	}
}

// Position is a 1-based line and column in script source.
type Position struct {
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is a lexical unit of script source. For string literals Text holds
// the decoded value without quotes.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

// Is reports whether t has the given kind and text.
func (t *Token) Is(kind Kind, text string) bool {
	return t != nil && t.Kind == kind && t.Text == text
}

// String returns the token text.
func (t *Token) String() string {
	if t == nil {
		return ""
	}

	return t.Text
}

// LogValue implements slog.LogValuer.
func (t *Token) LogValue() slog.Value {
	if t == nil {
		return slog.StringValue("<eof>")
	}

	return slog.GroupValue(
		slog.String("kind", t.Kind.String()),
		slog.String("text", t.Text),
		slog.String("pos", t.Pos.String()),
	)
}
