package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSome(t *testing.T) {
	o := Some[any](nil)
	assert.True(t, o.IsSome())
	assert.Nil(t, o.Unwrap())

	v, ok := Some("Acme").Get()
	assert.True(t, ok)
	assert.Equal(t, "Acme", v)
	assert.Equal(t, "Acme", Some("Acme").UnwrapOr("fallback"))
}

func TestNothing(t *testing.T) {
	o := Nothing[string]()
	assert.True(t, o.IsNothing())
	assert.Equal(t, "fallback", o.UnwrapOr("fallback"))
	assert.Panics(t, func() { o.Unwrap() })

	_, ok := o.Get()
	assert.False(t, ok)
}
