package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTypeWalksWrappedChain(t *testing.T) {
	inner := RateFetch("fetch failed", stderrors.New("connection refused"))
	outer := fmt.Errorf("refresh: %w", inner)

	assert.True(t, IsType(outer, TypeRateFetch))
	assert.False(t, IsType(outer, TypeInvalidInput))
	assert.False(t, IsType(nil, TypeRateFetch))
	assert.False(t, IsType(stderrors.New("plain"), TypeInternal))
}

func TestIsTypeFindsNestedDomainError(t *testing.T) {
	err := Calculation("ukraine", InvalidInput("salary must be finite"))

	assert.True(t, IsType(err, TypeCalculation))
	assert.True(t, IsType(err, TypeInvalidInput))
	assert.Equal(t, TypeCalculation, TypeOf(err))
}

func TestTypeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, TypeInternal, TypeOf(stderrors.New("boom")))
}

func TestErrorMessageAndContext(t *testing.T) {
	err := ConversionUnavailable("USD", "XYZ")

	assert.Equal(t, "[CONVERSION_UNAVAILABLE] no exchange rate for USD -> XYZ", err.Error())
	assert.Equal(t, "XYZ", err.Context["to"])
	assert.True(t, err.HasType(TypeConversionUnavailable))
	assert.False(t, err.HasType(TypeInternal))
	assert.True(t, stderrors.Is(err, err))

	wrapped := Config("bad file", stderrors.New("unexpected EOF"))
	assert.Equal(t, "[CONFIG_ERROR] bad file: unexpected EOF", wrapped.Error())
	assert.Equal(t, "unexpected EOF", stderrors.Unwrap(wrapped).Error())
}

func TestProfileNotFound(t *testing.T) {
	err := ProfileNotFound("atlantis")
	assert.Equal(t, TypeProfileNotFound, err.Type)
	assert.Contains(t, err.Error(), "atlantis")
}
