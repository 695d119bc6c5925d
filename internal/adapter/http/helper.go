package http

import "strings"

// containsFieldMsg reports whether the validation response carries an entry
// for field whose message mentions substr. Tests match on fragments so
// wording can evolve without breaking them.
func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
