package schema

import (
	"errors"
	"testing"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"required":             []any{"limit"},
		"additionalProperties": false,
		"properties": map[string]any{
			"limit": map[string]any{"type": "integer"},
			"unit":  map[string]any{"type": "string", "minLength": 1},
		},
	}
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema(limitSchema()))
}

func TestValidateSchemaNil(t *testing.T) {
	err := ValidateSchema(nil)
	var verr *apperror.ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestValidateSchemaBadKeyword(t *testing.T) {
	doc := map[string]any{
		"type":       "object",
		"properties": map[string]any{"limit": map[string]any{"type": "no-such-type"}},
	}
	assert.Error(t, ValidateSchema(doc))
}

func TestValidateContent(t *testing.T) {
	compiled, err := Compile(limitSchema())
	require.NoError(t, err)

	assert.NoError(t, ValidateContent(compiled, map[string]any{"limit": 5}))
	assert.NoError(t, ValidateContent(compiled, map[string]any{"limit": 5, "unit": "h"}))
}

func TestValidateContentMissingRequired(t *testing.T) {
	compiled, err := Compile(limitSchema())
	require.NoError(t, err)

	err = ValidateContent(compiled, map[string]any{"unit": "h"})
	var verr *apperror.ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestValidateContentExtraProperty(t *testing.T) {
	compiled, err := Compile(limitSchema())
	require.NoError(t, err)

	err = ValidateContent(compiled, map[string]any{"limit": 5, "extra": true})
	assert.Error(t, err, "additionalProperties: false must reject unknown keys")
}

func TestValidateContentMinLength(t *testing.T) {
	compiled, err := Compile(limitSchema())
	require.NoError(t, err)

	assert.Error(t, ValidateContent(compiled, map[string]any{"limit": 5, "unit": ""}))
	assert.NoError(t, ValidateContent(compiled, map[string]any{"limit": 5, "unit": " "}))
}

func TestValidateContentErrorPaths(t *testing.T) {
	compiled, err := Compile(limitSchema())
	require.NoError(t, err)

	err = ValidateContent(compiled, map[string]any{"limit": "fast"})
	var verr *apperror.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "content_s.limit")
}

// Validation of a coerced value and of its serialise/parse round trip must
// agree.
func TestCoerceRoundTripLaw(t *testing.T) {
	doc := limitSchema()
	compiled, err := Compile(doc)
	require.NoError(t, err)

	coerced := Coerce(doc, map[string]any{"limit": "5", "unit": "h"})
	direct := ValidateContent(compiled, coerced)

	normalized, err := normalize(coerced)
	require.NoError(t, err)
	roundTripped := ValidateContent(compiled, normalized)

	assert.Equal(t, direct == nil, roundTripped == nil)
	assert.NoError(t, direct)
}

func TestCompileCached(t *testing.T) {
	doc := limitSchema()
	first, err := CompileCached("type-1@v1", doc)
	require.NoError(t, err)
	second, err := CompileCached("type-1@v1", doc)
	require.NoError(t, err)
	assert.Same(t, first, second)

	third, err := CompileCached("type-1@v2", doc)
	require.NoError(t, err)
	assert.NotNil(t, third)
}
