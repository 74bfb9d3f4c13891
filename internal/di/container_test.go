package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ name string }

func TestResolve(t *testing.T) {
	c := NewContainer()
	c.Register("widget", &widget{name: "w"})
	c.Register("count", 3)

	w, err := Resolve[*widget](c, "widget")
	require.NoError(t, err)
	assert.Equal(t, "w", w.name)

	_, err = Resolve[*widget](c, "count")
	assert.ErrorContains(t, err, "has type int")

	_, err = Resolve[*widget](c, "missing")
	assert.ErrorContains(t, err, "not registered")

	assert.True(t, c.Has("count"))
	assert.Equal(t, []string{"count", "widget"}, c.GetNames())
}

func TestGetContainerIsSingleton(t *testing.T) {
	assert.Same(t, GetContainer(), GetContainer())
}
