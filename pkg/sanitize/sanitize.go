// Package sanitize rejects user input that looks like script or markup injection.
package sanitize

import (
	"errors"
	"regexp"
)

// ErrUnsafeInput is returned when a value matches the injection denylist.
var ErrUnsafeInput = errors.New("unsafe input")

var unsafePattern = regexp.MustCompile(`(?i)(<script)|(<iframe)|(<object)|(<embed)|(<link)|(on\w+\s*=)|(javascript:)|(vbscript:)`)

// IsUnsafe reports whether s matches the denylist.
func IsUnsafe(s string) bool {
	return unsafePattern.MatchString(s)
}

// Check returns ErrUnsafeInput if any value is unsafe.
func Check(values ...string) error {
	for _, v := range values {
		if IsUnsafe(v) {
			return ErrUnsafeInput
		}
	}
	return nil
}
