package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"nature":          "nature",
		"Street Art":      "street-art",
		"black  &  white": "black--white",
		"café":            "caf",
		"snake_case-ok":   "snake_case-ok",
		"tabs\tand\nnl":   "tabs-and-nl",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "nature", CanonicalName("  Nature "))
	assert.Equal(t, "", CanonicalName("   "))
}
