package ast

type Type int

const (
	Nil Type = iota
	Bool
	Int
	Float
	String
)

var typeNames = [...]string{
	Nil:    "nil",
	Bool:   "bool",
	Int:    "int",
	Float:  "float",
	String: "string",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "invalid"
	}
	return typeNames[t]
}

func (t Type) IsNumeric() bool {
	return t == Int || t == Float
}

func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return Nil, false
}

// Formal names a declared variable, or a function together with its
// return type.
type Formal struct {
	Name string
	Type Type
}
