package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCropType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "known lowercase", input: "rice", want: "rice"},
		{name: "known mixed case", input: "Wheat", want: "wheat"},
		{name: "padded", input: "  maize  ", want: "maize"},
		{name: "unknown", input: "bamboo", want: CropTypeOther},
		{name: "empty", input: "", want: CropTypeOther},
		{name: "other passes through", input: "other", want: CropTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeCropType(tt.input))
		})
	}
}
