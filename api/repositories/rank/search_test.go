package rankrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		term     string
		expected string
	}{
		{term: "ana", expected: "ana"},
		{term: "100%", expected: `100\%`},
		{term: "an_a", expected: `an\_a`},
		{term: `back\slash`, expected: `back\\slash`},
		{term: `\%_`, expected: `\\\%\_`},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeLike(tt.term))
		})
	}
}
