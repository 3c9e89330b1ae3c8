package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState(t *testing.T) {
	var zero State
	assert.Equal(t, None(), zero)
	assert.False(t, zero.IsSelected())
	assert.False(t, zero.Is(""))
	assert.Equal(t, "Unselected", zero.String())

	s := Of("bella")
	id, ok := s.ID()
	assert.True(t, ok)
	assert.Equal(t, "bella", id)
	assert.True(t, s.Is("bella"))
	assert.False(t, s.Is("sakura"))
	assert.Equal(t, "Selected(bella)", s.String())
	assert.NotEqual(t, None(), Of(""))
}
