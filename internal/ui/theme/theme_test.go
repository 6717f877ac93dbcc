package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByNameIgnoresCase(t *testing.T) {
	th, ok := ByName("Dracula")
	assert.True(t, ok)
	assert.Equal(t, "dracula", th.Name)

	_, ok = ByName("solarized")
	assert.False(t, ok)
}

func TestNextWraps(t *testing.T) {
	assert.Equal(t, "dracula", Next("nord").Name)
	assert.Equal(t, "nord", Next("dracula").Name)
	assert.Equal(t, "nord", Next("unknown").Name)
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, Nord.StatusCompleted, Nord.StatusColor("completed"))
	assert.Equal(t, Nord.StatusPending, Nord.StatusColor(""))
}
