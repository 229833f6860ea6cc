package snail

// Default marker configuration.
const (
	DefaultOpen     = "<!--"
	DefaultClose    = "-->"
	DefaultOptional = "optional"

	DefaultParameterKeyword = "param"
	DefaultReferenceKeyword = "ref"
)

// Syntax holds the literal strings that delimit markers in template text.
type Syntax struct {
	// Open starts a marker, e.g. "<!--".
	Open string
	// Close ends a marker, e.g. "-->".
	Close string
	// Optional is the keyword of the "(optional)" group that marks a slot as optional.
	Optional string
}

// DefaultSyntax returns the HTML comment based syntax.
func DefaultSyntax() Syntax {
	return Syntax{
		Open:     DefaultOpen,
		Close:    DefaultClose,
		Optional: DefaultOptional,
	}
}
