package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnsafe(t *testing.T) {
	tests := []struct {
		input  string
		unsafe bool
	}{
		{"kobe24", false},
		{"jordan@example.com", false},
		{"What was your first pet's name?", false},
		{"<script>alert(1)</script>", true},
		{"<SCRIPT src=x>", true},
		{"<iframe src=evil>", true},
		{"<object data=x>", true},
		{"<embed src=x>", true},
		{"<link rel=stylesheet>", true},
		{`<img src=x onerror="alert(1)">`, true},
		{"onload =doit()", true},
		{"javascript:alert(1)", true},
		{"VBScript:msgbox", true},
		{"online", false},
		{"one = two", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.unsafe, IsUnsafe(tt.input))
		})
	}
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("lebron", "james@example.com", ""))
	assert.ErrorIs(t, Check("lebron", "<script>"), ErrUnsafeInput)
}
