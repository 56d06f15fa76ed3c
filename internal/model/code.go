package model

import "regexp"

// codePattern matches an action code anchored at the start of the activity
// text: one uppercase letter followed by exactly two digits, e.g. "A03".
var codePattern = regexp.MustCompile(`^[A-Z]\d\d`)

// ParseCode extracts the action code from an activity description.
// It returns the empty string when the text does not start with a code.
func ParseCode(activity string) string {
	return codePattern.FindString(activity)
}

// CodeType returns the action type of a code: its leading letter.
func CodeType(code string) string {
	if code == "" {
		return ""
	}
	return code[:1]
}
