package calculator

import (
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/preferences"
)

// DigitRequest is the JSON body for POST /calculator/digit.
type DigitRequest struct {
	Digit string `json:"digit"` // "0"-"9" or "."
}

// OperatorRequest is the JSON body for POST /calculator/operator.
type OperatorRequest struct {
	Operator string `json:"operator"` // "+", "-", "×", "÷"
}

// RecallRequest is the JSON body for POST /calculator/recall. ID selects a
// history entry; Value loads an arbitrary operand when ID is absent.
type RecallRequest struct {
	ID    *int64  `json:"id,omitempty"`
	Value *string `json:"value,omitempty"`
}

// KeysRequest is the JSON body for POST /calculator/keys.
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// HistoryResponse is the JSON response for GET /history.
type HistoryResponse struct {
	Groups []history.DayGroup `json:"groups"`
	Total  int                `json:"total"`
}

// PreferencesResponse is the JSON response for the preference endpoints.
type PreferencesResponse struct {
	preferences.Preferences
	PersistError string `json:"persist_error,omitempty"`
}
