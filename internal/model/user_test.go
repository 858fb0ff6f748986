package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "f1@example.com", NormalizeEmail("F1@Example.Com"))
	assert.Equal(t, "f1@example.com", NormalizeEmail("  f1@example.com \n"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestCropTypesRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rice,wheat", JoinCropTypes([]string{" rice", "", "wheat "}))
	assert.Equal(t, []string{"rice", "wheat"}, SplitCropTypes("rice, wheat,"))
	assert.Nil(t, SplitCropTypes("  "))
	assert.Equal(t, "", JoinCropTypes(nil))
}
