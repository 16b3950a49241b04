package engine

import (
	"errors"
	"fmt"
)

// Display sentinels shown in place of a numeric operand.
const (
	ErrorDisplay    = "Error"
	InfinityDisplay = "∞"
)

var (
	ErrInvalidDigit    = errors.New("invalid digit")
	ErrInvalidOperator = errors.New("invalid operator")
)

// Operator is one of the four binary operators, or None.
type Operator string

const (
	None     Operator = ""
	Add      Operator = "+"
	Subtract Operator = "-"
	Multiply Operator = "×"
	Divide   Operator = "÷"
)

// ParseOperator accepts the display symbols of the four operators.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case Add, Subtract, Multiply, Divide:
		return op, nil
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

// Kind classifies what an operand string currently holds.
type Kind int

const (
	Numeric Kind = iota
	ErrorState
	Infinite
)

func (k Kind) String() string {
	switch k {
	case ErrorState:
		return "error"
	case Infinite:
		return "infinite"
	default:
		return "numeric"
	}
}

// Classify reports the kind of an operand string.
func Classify(operand string) Kind {
	switch operand {
	case ErrorDisplay:
		return ErrorState
	case InfinityDisplay:
		return Infinite
	}
	return Numeric
}

// State is the full calculator state owned by an Engine.
type State struct {
	Current       string   `json:"current"`
	Previous      string   `json:"previous"`
	Operator      Operator `json:"operator"`
	AwaitingReset bool     `json:"awaiting_reset"`
}

// DefaultState is the state at startup and after Clear.
func DefaultState() State {
	return State{Current: "0"}
}

// Display is what the presentation layer renders: the current operand line and
// the previous operand line with its pending operator.
type Display struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
}

// Calculation is a completed compute, ready to become a history entry.
type Calculation struct {
	Expression string `json:"calculation"`
	Result     string `json:"result"`
}

// Outcome reports what a compute transition produced.
type Outcome struct {
	Calculation  *Calculation
	DivideByZero bool
}

// Computed reports whether a calculation completed.
func (o Outcome) Computed() bool {
	return o.Calculation != nil
}
