package l1detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDetection(t *testing.T) {
	good := Detection{Box: Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.5, ClassID: 0}
	assert.NoError(t, ValidateDetection(good))

	cases := []struct {
		name string
		d    Detection
	}{
		{"degenerate box", Detection{Box: Rect{X1: 10, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.5}},
		{"confidence above one", Detection{Box: Rect{X2: 10, Y2: 10}, Confidence: 1.5}},
		{"negative confidence", Detection{Box: Rect{X2: 10, Y2: 10}, Confidence: -0.1}},
		{"negative class id", Detection{Box: Rect{X2: 10, Y2: 10}, Confidence: 0.5, ClassID: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateDetection(tc.d))
		})
	}
}

func TestFilterValid(t *testing.T) {
	dets := []Detection{
		{Box: Rect{X2: 10, Y2: 10}, Confidence: 0.9},
		{Box: Rect{X1: 5, Y1: 5, X2: 5, Y2: 15}, Confidence: 0.9}, // degenerate
		{Box: Rect{X1: 20, Y1: 20, X2: 30, Y2: 30}, Confidence: 0.4},
	}

	valid, rejected := FilterValid(dets)
	assert.Equal(t, 1, rejected)
	assert.Len(t, valid, 2)
	assert.Equal(t, dets[0], valid[0], "order preserved")
	assert.Equal(t, dets[2], valid[1])
}

func TestClassNames(t *testing.T) {
	names := ClassNames{0: "person", 2: "car"}
	assert.Equal(t, "person", names.Name(0))
	assert.Equal(t, "car", names.Name(2))
	assert.Equal(t, "7", names.Name(7), "unknown ids render numerically")

	var nilNames ClassNames
	assert.Equal(t, "3", nilNames.Name(3), "nil map is valid")
}
