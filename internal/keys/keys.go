// Package keys maps keyboard keys to calculator actions.
package keys

import (
	"strings"

	"go-chi-calculator/internal/engine"
	"go-chi-calculator/internal/preferences"
)

// Kind is the category of an action.
type Kind int

const (
	Digit Kind = iota + 1
	Operator
	Compute
	Delete
	Clear
	ToggleHistory
	TogglePreference
)

// Action is what one key press asks the calculator to do.
type Action struct {
	Kind       Kind
	Digit      string
	Operator   engine.Operator
	Preference preferences.Name
}

var named = map[string]Action{
	"+":         {Kind: Operator, Operator: engine.Add},
	"-":         {Kind: Operator, Operator: engine.Subtract},
	"*":         {Kind: Operator, Operator: engine.Multiply},
	"×":         {Kind: Operator, Operator: engine.Multiply},
	"/":         {Kind: Operator, Operator: engine.Divide},
	"÷":         {Kind: Operator, Operator: engine.Divide},
	"=":         {Kind: Compute},
	"enter":     {Kind: Compute},
	"backspace": {Kind: Delete},
	"escape":    {Kind: Clear},
	"delete":    {Kind: Clear},
	"h":         {Kind: ToggleHistory},
	"s":         {Kind: TogglePreference, Preference: preferences.SoundEnabled},
	"a":         {Kind: TogglePreference, Preference: preferences.AnimationsEnabled},
}

// Lookup returns the action bound to key. Named keys and letters match
// case-insensitively.
func Lookup(key string) (Action, bool) {
	if len(key) == 1 && (key == "." || key[0] >= '0' && key[0] <= '9') {
		return Action{Kind: Digit, Digit: key}, true
	}
	a, ok := named[strings.ToLower(key)]
	return a, ok
}
