package snail

// ValueKind names the shape of a bound parameter value.
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindValueList
	KindSubParameters
	KindSubParametersList
)

// String returns the string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindValueList:
		return "value list"
	case KindSubParameters:
		return "sub-parameters"
	case KindSubParametersList:
		return "sub-parameters list"
	default:
		return "unknown"
	}
}

// Value is a parameter binding. It is implemented by Scalar, ValueList,
// SubParameters and SubParametersList only.
type Value interface {
	Kind() ValueKind
	isValue()
}

// Scalar is a single text value. It fills its slot on the first output line only.
type Scalar string

// ValueList is an ordered list of text values. A list bound to a slot repeats
// the line once per element. It must not be empty when it is used.
type ValueList []string

// SubParameters is the parameter tree of a single referenced template.
type SubParameters Params

// SubParametersList renders the referenced template once per element.
type SubParametersList []Params

func (Scalar) Kind() ValueKind            { return KindScalar }
func (ValueList) Kind() ValueKind         { return KindValueList }
func (SubParameters) Kind() ValueKind     { return KindSubParameters }
func (SubParametersList) Kind() ValueKind { return KindSubParametersList }

func (Scalar) isValue()            {}
func (ValueList) isValue()         {}
func (SubParameters) isValue()     {}
func (SubParametersList) isValue() {}

// Params maps parameter names to their bindings.
type Params map[string]Value

// Registry maps template names to parsed templates. It is consulted when a
// reference line is rendered and is supplied per render call.
type Registry map[string]*Template
