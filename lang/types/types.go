// Package types implements per-expression and per-function type inference,
// carried out across dependency clusters leaves first. Runtime values
// (lang/machine) are untyped 32-bit payloads; this package is what gives
// them meaning before execution.
package types

import "strings"

// Kind distinguishes the two things a location's static type can be: a
// first-class function value, or a number.
type Kind uint8

const (
	Unknown Kind = iota
	Number
	Func
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "Number"
	case Func:
		return "Function"
	default:
		return "?"
	}
}

// Type is the static type of a single value: either a number, or (if Kind ==
// Func) a function with the given Signature.
type Type struct {
	Kind      Kind
	Signature Signature // meaningful only when Kind == Func
}

// NumberType is the singleton Number type.
var NumberType = Type{Kind: Number}

// Signature is a function's inferred input/output stack shape: the types
// the function consumes (Inputs) and produces (Outputs), each listed bottom
// to top. A divergent function has a nil Outputs and Diverges set -- its
// output types are unconstrained because no call returns.
type Signature struct {
	Inputs    []Type
	Outputs   []Type
	Diverges  bool
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, t := range s.Inputs {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(t.Kind.String())
	}
	b.WriteString(" -> ")
	if s.Diverges {
		b.WriteString("!")
	} else {
		for i, t := range s.Outputs {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(t.Kind.String())
		}
	}
	b.WriteString(")")
	return b.String()
}

// FuncType returns the Type of a function value with the given signature.
func FuncType(sig Signature) Type { return Type{Kind: Func, Signature: sig} }
