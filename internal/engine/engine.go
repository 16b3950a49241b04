// Package engine implements the calculator expression state machine.
//
// An Engine holds one binary computation in progress: a previous operand, a
// pending operator and the operand being entered. Operand entry moves between
// two states. While entering, digits extend the current operand. After a
// compute (or a division-by-zero error) the engine awaits a reset, and the next
// digit starts a fresh operand while an operator chains off the shown result.
package engine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Engine is not safe for concurrent use; callers serialize events.
type Engine struct {
	state State
}

// New returns an engine in the default state.
func New() *Engine {
	return &Engine{state: DefaultState()}
}

// Restore returns an engine positioned at the given state.
func Restore(s State) *Engine {
	if s.Current == "" && s.Operator == None {
		s.Current = "0"
	}
	return &Engine{state: s}
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	return e.state
}

// Display renders the two display lines.
func (e *Engine) Display() Display {
	d := Display{Current: e.state.Current, Previous: e.state.Previous}
	if e.state.Operator != None {
		d.Previous = e.state.Previous + " " + string(e.state.Operator)
	}
	return d
}

// AppendDigit enters one digit or the decimal point.
func (e *Engine) AppendDigit(d string) (Display, error) {
	if !isDigit(d) {
		return e.Display(), ErrInvalidDigit
	}

	if e.state.AwaitingReset {
		e.state.Current = ""
		e.state.AwaitingReset = false
	}

	switch {
	case d == "." && strings.Contains(e.state.Current, "."):
	case e.state.Current == "0" && d != ".":
		e.state.Current = d
	default:
		e.state.Current += d
	}
	return e.Display(), nil
}

// ChooseOperator selects the pending operator. When a left-hand operand is
// already pending the expression is computed first, and the outcome of that
// chained compute is returned. The engine is left entering a fresh operand,
// so a value loaded before the next digit is extended rather than replaced.
func (e *Engine) ChooseOperator(op Operator) (Display, Outcome, error) {
	if _, err := ParseOperator(string(op)); err != nil {
		return e.Display(), Outcome{}, err
	}
	if e.state.Current == "" {
		return e.Display(), Outcome{}, nil
	}

	var outcome Outcome
	if e.state.Previous != "" {
		outcome = e.compute()
	}

	e.state.Operator = op
	e.state.Previous = e.state.Current
	e.state.Current = ""
	e.state.AwaitingReset = false
	return e.Display(), outcome, nil
}

// Compute applies the pending operator to both operands.
func (e *Engine) Compute() (Display, Outcome) {
	outcome := e.compute()
	return e.Display(), outcome
}

func (e *Engine) compute() Outcome {
	prev, ok := ParseOperand(e.state.Previous)
	if !ok {
		return Outcome{}
	}
	current, ok := ParseOperand(e.state.Current)
	if !ok {
		return Outcome{}
	}

	var result float64
	switch e.state.Operator {
	case Add:
		result = prev + current
	case Subtract:
		result = prev - current
	case Multiply:
		result = prev * current
	case Divide:
		if current == 0 {
			e.state.Current = ErrorDisplay
			e.state.Previous = ""
			e.state.Operator = None
			e.state.AwaitingReset = true
			return Outcome{DivideByZero: true}
		}
		result = prev / current
	default:
		return Outcome{}
	}

	e.state.Current = Format(result)
	calc := &Calculation{
		Expression: e.state.Previous + " " + string(e.state.Operator) + " " + e.state.Current,
		Result:     e.state.Current,
	}
	e.state.Operator = None
	e.state.Previous = ""
	e.state.AwaitingReset = true
	return Outcome{Calculation: calc}
}

// DeleteLastChar drops the last character of the current operand. Sentinels
// and single characters reset to "0".
func (e *Engine) DeleteLastChar() Display {
	switch {
	case Classify(e.state.Current) != Numeric, len([]rune(e.state.Current)) == 1:
		e.state.Current = "0"
	default:
		r := []rune(e.state.Current)
		e.state.Current = string(r[:len(r)-1])
	}
	return e.Display()
}

// Clear resets both operands and the pending operator.
func (e *Engine) Clear() Display {
	e.state.Current = "0"
	e.state.Previous = ""
	e.state.Operator = None
	return e.Display()
}

// LoadResult overwrites the current operand, typically with a past result.
func (e *Engine) LoadResult(value string) Display {
	e.state.Current = value
	return e.Display()
}

// ParseOperand parses an operand as a decimal number. Thousands
// separators written by Format are ignored.
func ParseOperand(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeErr(err) {
		return 0, false
	}
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func isDigit(d string) bool {
	if d == "." {
		return true
	}
	return len(d) == 1 && d[0] >= '0' && d[0] <= '9'
}
