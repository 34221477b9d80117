package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "only separators", input: " , ,, ", expected: nil},
		{name: "single value", input: "DEALS_REFRESHED", expected: []string{"DEALS_REFRESHED"}},
		{name: "trims spaces", input: " a , b ", expected: []string{"a", "b"}},
		{name: "drops duplicates", input: "a,b,a", expected: []string{"a", "b"}},
		{name: "keeps order", input: "c,a,b", expected: []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
