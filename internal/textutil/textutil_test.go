package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`"Wolves"`, "Wolves"},
		{` 'Bears' `, "Bears"},
		{`"Say \"hi\""`, `Say "hi"`},
		{`"a\\b"`, `a\b`},
		{"nil", "nil"},
		{"12", "12"},
		{`"`, `"`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Unquote(tc.in), tc.in)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"plain", `with "quotes"`, `back\slash`} {
		assert.Equal(t, s, Unquote(Quote(s)))
	}
	assert.Equal(t, `"a\nb"`, Quote("a\nb"))
}

func TestTruncateAndHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashBytes(nil))
}
