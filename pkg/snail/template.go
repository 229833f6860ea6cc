package snail

// LineKind identifies the classification of a template line.
type LineKind int

const (
	LineRaw LineKind = iota
	LineParameters
	LineReference
)

// String returns the string representation of the line kind
func (k LineKind) String() string {
	switch k {
	case LineRaw:
		return "raw"
	case LineParameters:
		return "parameters"
	case LineReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Line is one classified source line: RawLine, ParametersLine or ReferenceLine.
type Line interface {
	Kind() LineKind
	isLine()
}

// RawLine has no markers and is copied verbatim.
type RawLine struct {
	Text string
}

// ParametersLine holds literal fragments and inline parameter markers. The
// token list always ends with a literal token, which may be empty.
type ParametersLine struct {
	Tokens []Token
}

// ReferenceLine is a whole-line marker naming another template. Left and
// Right are the literal text around the marker and are empty when absent.
type ReferenceLine struct {
	Left     string
	Optional bool
	Name     string
	Right    string
}

func (RawLine) Kind() LineKind        { return LineRaw }
func (ParametersLine) Kind() LineKind { return LineParameters }
func (ReferenceLine) Kind() LineKind  { return LineReference }

func (RawLine) isLine()        {}
func (ParametersLine) isLine() {}
func (ReferenceLine) isLine()  {}

// TokenKind distinguishes literal fragments from parameter markers.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenParameter
)

// String returns the string representation of the token kind
func (k TokenKind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// Token is an element of a ParametersLine. Literal tokens use Text;
// parameter tokens use Name and Optional.
type Token struct {
	Kind     TokenKind
	Text     string
	Name     string
	Optional bool
}

// LiteralToken returns a literal token.
func LiteralToken(text string) Token {
	return Token{Kind: TokenLiteral, Text: text}
}

// ParameterToken returns a parameter marker token.
func ParameterToken(name string, optional bool) Token {
	return Token{Kind: TokenParameter, Name: name, Optional: optional}
}

// allOptional reports whether every parameter token on the line is optional.
func (l ParametersLine) allOptional() bool {
	for _, tok := range l.Tokens {
		if tok.Kind == TokenParameter && !tok.Optional {
			return false
		}
	}
	return true
}

// ParameterInfo describes a parameter slot used by a template.
type ParameterInfo struct {
	Name string
	// Optional is true when every occurrence of the parameter is optional.
	Optional bool
}

// Template is an ordered, immutable sequence of classified lines produced
// by Parser.Parse. It is safe for concurrent use.
type Template struct {
	lines []Line
}

// NewTemplate builds a template from already classified lines. The lines
// are copied.
func NewTemplate(lines ...Line) *Template {
	return &Template{lines: copyLines(lines)}
}

// Len returns the number of source lines.
func (t *Template) Len() int {
	return len(t.lines)
}

// Lines returns a copy of the classified lines.
func (t *Template) Lines() []Line {
	return copyLines(t.lines)
}

// References returns the distinct names of referenced templates in order of
// first appearance.
func (t *Template) References() []string {
	seen := make(map[string]bool)
	var names []string
	for _, line := range t.lines {
		ref, ok := line.(ReferenceLine)
		if !ok || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		names = append(names, ref.Name)
	}
	return names
}

// Parameters returns the distinct inline parameters in order of first
// appearance.
func (t *Template) Parameters() []ParameterInfo {
	index := make(map[string]int)
	var params []ParameterInfo
	for _, line := range t.lines {
		pl, ok := line.(ParametersLine)
		if !ok {
			continue
		}
		for _, tok := range pl.Tokens {
			if tok.Kind != TokenParameter {
				continue
			}
			if i, exists := index[tok.Name]; exists {
				params[i].Optional = params[i].Optional && tok.Optional
				continue
			}
			index[tok.Name] = len(params)
			params = append(params, ParameterInfo{Name: tok.Name, Optional: tok.Optional})
		}
	}
	return params
}

func copyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		if pl, ok := line.(ParametersLine); ok {
			tokens := make([]Token, len(pl.Tokens))
			copy(tokens, pl.Tokens)
			line = ParametersLine{Tokens: tokens}
		}
		out[i] = line
	}
	return out
}
