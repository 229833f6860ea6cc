package snail

import (
	"fmt"
	"regexp"
	"strings"
)

// Parser classifies template text into lines. A Parser is immutable and may
// be shared between goroutines.
type Parser struct {
	syntax           Syntax
	parameterKeyword string
	referenceKeyword string

	// parameterRegex finds inline parameter markers anywhere in a line.
	parameterRegex *regexp.Regexp
	// referenceRegex matches a whole line holding a reference marker.
	referenceRegex *regexp.Regexp
}

// NewParser compiles the marker matchers for syntax and the two operator
// keywords. It returns a config error if the configuration is unusable.
func NewParser(syntax Syntax, parameterKeyword, referenceKeyword string) (*Parser, error) {
	if err := validateSyntax(syntax, parameterKeyword, referenceKeyword); err != nil {
		return nil, err
	}

	marker := func(keyword string) string {
		return regexp.QuoteMeta(syntax.Open) +
			`\s*(?P<optional>\(` + regexp.QuoteMeta(syntax.Optional) + `\))?` +
			`\(` + regexp.QuoteMeta(keyword) + `\)` +
			`(?P<name>[0-9A-Za-z_]+)\s*` +
			regexp.QuoteMeta(syntax.Close)
	}

	parameterRegex, err := regexp.Compile(marker(parameterKeyword))
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "invalid parameter marker pattern", Cause: err}
	}

	referenceRegex, err := regexp.Compile(`^(?P<left>.+)?` + marker(referenceKeyword) + `(?P<right>.+)?$`)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "invalid reference marker pattern", Cause: err}
	}

	return &Parser{
		syntax:           syntax,
		parameterKeyword: parameterKeyword,
		referenceKeyword: referenceKeyword,
		parameterRegex:   parameterRegex,
		referenceRegex:   referenceRegex,
	}, nil
}

// NewDefaultParser returns a parser for DefaultSyntax with the "param" and
// "ref" keywords.
func NewDefaultParser() *Parser {
	p, err := NewParser(DefaultSyntax(), DefaultParameterKeyword, DefaultReferenceKeyword)
	if err != nil {
		panic(fmt.Sprintf("snail: default parser: %v", err))
	}
	return p
}

// Syntax returns the syntax the parser was built with.
func (p *Parser) Syntax() Syntax {
	return p.syntax
}

// Keywords returns the parameter and reference keywords.
func (p *Parser) Keywords() (parameter, reference string) {
	return p.parameterKeyword, p.referenceKeyword
}

func validateSyntax(syntax Syntax, parameterKeyword, referenceKeyword string) error {
	fields := []struct {
		name  string
		value string
	}{
		{"open marker", syntax.Open},
		{"close marker", syntax.Close},
		{"optional keyword", syntax.Optional},
		{"parameter keyword", parameterKeyword},
		{"reference keyword", referenceKeyword},
	}
	for _, f := range fields {
		if f.value == "" {
			return configError("%s must not be empty", f.name)
		}
		if strings.ContainsAny(f.value, "\r\n") {
			return configError("%s must not contain line breaks", f.name)
		}
	}

	for _, kw := range []string{syntax.Optional, parameterKeyword, referenceKeyword} {
		if strings.ContainsAny(kw, " \t") {
			return configError("keyword %q must not contain whitespace", kw)
		}
	}

	if parameterKeyword == referenceKeyword {
		return configError("parameter and reference keywords must differ, both are %q", parameterKeyword)
	}

	return nil
}

// Parse converts template text into a Template. Lines are delimited by "\n";
// a trailing "\r" is dropped and a trailing newline does not start a new line.
func (p *Parser) Parse(text string) (*Template, error) {
	sourceLines := splitLines(text)
	lines := make([]Line, 0, len(sourceLines))

	for i, source := range sourceLines {
		line, err := p.parseLine(source)
		if err != nil {
			err.Line = i + 1
			err.Source = source
			return nil, err
		}
		lines = append(lines, line)
	}

	return &Template{lines: lines}, nil
}

func (p *Parser) parseLine(source string) (Line, *Error) {
	matches := p.parameterRegex.FindAllStringSubmatchIndex(source, -1)
	if len(matches) > 0 {
		return p.parametersLine(source, matches)
	}

	if m := p.referenceRegex.FindStringSubmatchIndex(source); m != nil {
		name := group(p.referenceRegex, source, m, "name")
		if name == "" {
			return nil, &Error{Kind: KindParse, Message: "reference marker without a name"}
		}
		return ReferenceLine{
			Left:     group(p.referenceRegex, source, m, "left"),
			Optional: group(p.referenceRegex, source, m, "optional") != "",
			Name:     name,
			Right:    group(p.referenceRegex, source, m, "right"),
		}, nil
	}

	return RawLine{Text: source}, nil
}

func (p *Parser) parametersLine(source string, matches [][]int) (Line, *Error) {
	tokens := make([]Token, 0, 2*len(matches)+1)
	end := 0

	for _, m := range matches {
		if m[0] > end {
			tokens = append(tokens, LiteralToken(source[end:m[0]]))
		}

		name := group(p.parameterRegex, source, m, "name")
		if name == "" {
			return nil, &Error{Kind: KindParse, Message: "parameter marker without a name"}
		}
		tokens = append(tokens, ParameterToken(name, group(p.parameterRegex, source, m, "optional") != ""))
		end = m[1]
	}

	tokens = append(tokens, LiteralToken(source[end:]))
	return ParametersLine{Tokens: tokens}, nil
}

// group returns the text of a named capture group, or "" if it did not participate.
func group(re *regexp.Regexp, source string, match []int, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || match[2*i] < 0 {
		return ""
	}
	return source[match[2*i]:match[2*i+1]]
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
