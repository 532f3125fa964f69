// Package refactor holds the request/result model and the client that asks
// the hosted model to rewrite a piece of code.
package refactor

import (
	"fmt"
	"strings"
)

// Focus is the optimization criterion sent to the model.
type Focus int

const (
	FocusReadability Focus = iota + 1
	FocusPerformance
	FocusSecurity
	FocusModernization
	FocusBugFixing
)

var focusLabels = map[Focus]string{
	FocusReadability:   "Readability",
	FocusPerformance:   "Performance",
	FocusSecurity:      "Security",
	FocusModernization: "Modernization (ES6+)",
	FocusBugFixing:     "Bug Fixing",
}

var focusNames = map[Focus]string{
	FocusReadability:   "Readability",
	FocusPerformance:   "Performance",
	FocusSecurity:      "Security",
	FocusModernization: "Modernization",
	FocusBugFixing:     "BugFixing",
}

// Focuses lists every focus in display order.
func Focuses() []Focus {
	return []Focus{FocusReadability, FocusPerformance, FocusSecurity, FocusModernization, FocusBugFixing}
}

// Label is the human readable text embedded in the prompt and shown in the form.
func (f Focus) Label() string {
	if l, ok := focusLabels[f]; ok {
		return l
	}
	return ""
}

// String returns the bare enum name.
func (f Focus) String() string {
	if n, ok := focusNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Focus(%d)", int(f))
}

// Valid reports whether f is one of the declared values.
func (f Focus) Valid() bool {
	_, ok := focusLabels[f]
	return ok
}

// ParseFocus accepts a label ("Bug Fixing") or a name ("BugFixing"), ignoring case.
func ParseFocus(s string) (Focus, error) {
	s = strings.TrimSpace(s)
	for _, f := range Focuses() {
		if strings.EqualFold(s, focusLabels[f]) || strings.EqualFold(s, focusNames[f]) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown focus %q", ErrInvalidRequest, s)
}

// MarshalText encodes the focus as its label.
func (f Focus) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("refactor: invalid focus %d", int(f))
	}
	return []byte(f.Label()), nil
}

// UnmarshalText accepts anything ParseFocus accepts.
func (f *Focus) UnmarshalText(b []byte) error {
	v, err := ParseFocus(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Request is one submit action.
type Request struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Focus    Focus  `json:"focus"`
}

// Validate rejects requests that cannot produce a meaningful prompt.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidRequest)
	}
	if !r.Focus.Valid() {
		return fmt.Errorf("%w: focus is required", ErrInvalidRequest)
	}
	return nil
}

// Result is the model's answer.
type Result struct {
	ImprovedCode string   `json:"improvedCode"`
	Explanation  string   `json:"explanation"`
	KeyChanges   []string `json:"keyChanges"`
}
