package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileSchema = `{
  "type": "object",
  "required": ["sweetness", "acidity"],
  "properties": {
    "sweetness": {"type": "integer"},
    "acidity": {"type": "integer"}
  }
}`

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(profileSchema, []byte(`{"sweetness":3,"acidity":7}`)))

	err := v.Validate(profileSchema, []byte(`{"sweetness":"sweet"}`))
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Problems, 2)
	assert.Contains(t, err.Error(), "acidity")
}

func TestValidate_MapSchemaIsCached(t *testing.T) {
	v := NewValidator()
	s := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	assert.NoError(t, v.Validate(s, []byte(`["Dassai","Juyondai"]`)))
	assert.Error(t, v.Validate(s, []byte(`[1]`)))

	n := 0
	v.cache.Range(func(_, _ any) bool { n++; return true })
	assert.Equal(t, 1, n)
}

func TestValidate_BadSchema(t *testing.T) {
	err := NewValidator().Validate(`{"type": "object", `, []byte(`{}`))
	assert.ErrorContains(t, err, "invalid schema definition")
}

func TestError_Truncates(t *testing.T) {
	e := &Error{Problems: []string{"a", "b", "c", "d", "e"}}
	assert.Equal(t, "schema validation failed: a; b; c (and 2 more)", e.Error())
}
