package snail

import (
	"io"
	"strings"
)

// DefaultMaxDepth bounds reference nesting during rendering.
const DefaultMaxDepth = 64

// RenderOption configures a render call.
type RenderOption func(*renderConfig)

type renderConfig struct {
	maxDepth int
}

// WithMaxDepth sets the maximum reference nesting depth. Values below 1 are ignored.
func WithMaxDepth(depth int) RenderOption {
	return func(c *renderConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// renderer carries the per-call state: the registry, the output buffer and
// the chain of references being expanded.
type renderer struct {
	registry Registry
	maxDepth int
	out      strings.Builder
	chain    []string
}

// Render expands the template against params, resolving reference lines in
// registry. Every output line ends with "\n". On error nothing is returned
// but the error.
func (t *Template) Render(params Params, registry Registry, opts ...RenderOption) (string, error) {
	cfg := renderConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &renderer{registry: registry, maxDepth: cfg.maxDepth}
	if err := r.render(t, params, "", ""); err != nil {
		return "", err
	}
	return r.out.String(), nil
}

// RenderTo renders the template and writes the result to w. Nothing is
// written if rendering fails.
func (t *Template) RenderTo(w io.Writer, params Params, registry Registry, opts ...RenderOption) error {
	out, err := t.Render(params, registry, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (r *renderer) render(t *Template, params Params, outerLeft, outerRight string) *Error {
	for i, line := range t.lines {
		var err *Error
		switch l := line.(type) {
		case RawLine:
			r.out.WriteString(outerLeft)
			r.out.WriteString(l.Text)
			r.out.WriteString(outerRight)
			r.out.WriteByte('\n')
		case ParametersLine:
			err = r.renderParameters(l, params, outerLeft, outerRight)
		case ReferenceLine:
			err = r.renderReference(l, params, outerLeft, outerRight)
		}
		if err != nil {
			if err.Line == 0 {
				err.Line = i + 1
				err.Template = append([]string(nil), r.chain...)
			}
			return err
		}
	}
	return nil
}

// renderParameters emits one output line per round. A round is the last one
// once any token marks it final: an absent optional parameter, a mandatory
// scalar, a scalar on an all-optional line, or a list reaching its last element.
func (r *renderer) renderParameters(line ParametersLine, params Params, outerLeft, outerRight string) *Error {
	allOptional := line.allOptional()

	for round := 0; ; round++ {
		final := false
		r.out.WriteString(outerLeft)

		for _, tok := range line.Tokens {
			if tok.Kind == TokenLiteral {
				r.out.WriteString(tok.Text)
				continue
			}

			value, ok := params[tok.Name]
			if !ok {
				if !tok.Optional {
					return renderError(KindMissingParameter, tok.Name, "missing mandatory parameter %q", tok.Name)
				}
				final = true
				continue
			}

			switch v := value.(type) {
			case Scalar:
				if round == 0 {
					r.out.WriteString(string(v))
				}
				if !tok.Optional || allOptional {
					final = true
				}
			case ValueList:
				if len(v) == 0 {
					return renderError(KindEmptyValueList, tok.Name, "empty value list for parameter %q", tok.Name)
				}
				if round < len(v) {
					r.out.WriteString(v[round])
				}
				if round >= len(v)-1 {
					final = true
				}
			case nil:
				return renderError(KindTypeMismatch, tok.Name, "parameter %q is bound to a nil value", tok.Name)
			default:
				return renderError(KindTypeMismatch, tok.Name,
					"parameter %q expects a scalar or value list, got %s", tok.Name, value.Kind())
			}
		}

		r.out.WriteString(outerRight)
		r.out.WriteByte('\n')

		if final {
			return nil
		}
	}
}

// renderReference expands a reference line. A name without a binding is
// skipped whether or not the reference is optional.
func (r *renderer) renderReference(line ReferenceLine, params Params, outerLeft, outerRight string) *Error {
	value, ok := params[line.Name]
	if !ok {
		return nil
	}

	left := outerLeft + line.Left
	right := line.Right + outerRight

	switch v := value.(type) {
	case SubParameters:
		return r.renderNested(line, Params(v), left, right)
	case SubParametersList:
		for _, sub := range v {
			if err := r.renderNested(line, sub, left, right); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return renderError(KindTypeMismatch, line.Name, "reference %q is bound to a nil value", line.Name)
	default:
		return renderError(KindTypeMismatch, line.Name,
			"reference %q expects sub-parameters or a sub-parameters list, got %s", line.Name, value.Kind())
	}
}

func (r *renderer) renderNested(line ReferenceLine, params Params, left, right string) *Error {
	sub := r.registry[line.Name]
	if sub == nil {
		if line.Optional {
			return nil
		}
		return renderError(KindMissingTemplate, line.Name, "no template registered for reference %q", line.Name)
	}

	if len(r.chain) >= r.maxDepth {
		return renderError(KindDepthExceeded, line.Name,
			"reference %q exceeds maximum nesting depth %d", line.Name, r.maxDepth)
	}

	r.chain = append(r.chain, line.Name)
	err := r.render(sub, params, left, right)
	r.chain = r.chain[:len(r.chain)-1]
	return err
}
