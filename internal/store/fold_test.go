package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Gómez":             "gomez",
		"  ANA   María ":    "ana maria",
		"Capellanía":        "capellania",
		"Núñez 30123456":    "nunez 30123456",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%gomez%", likePattern("Gómez"))
	assert.Equal(t, "%50!%!_x!!%", likePattern("50%_x!"))
}
