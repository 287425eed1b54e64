package conditional

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTernary(t *testing.T) {
	assert.Equal(t, "a", Ternary(true, "a", "b"))
	assert.Equal(t, "b", Ternary(false, "a", "b"))
	assert.Equal(t, 2, Ternary(1 > 2, 1, 2))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "x", Coalesce("", "x", "y"))
	assert.Equal(t, 5, Coalesce(0, 0, 5))
	assert.Equal(t, "", Coalesce[string]())
}
