package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTxRetry(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"", MinTxRetry},
		{"abc", MinTxRetry},
		{"1", MinTxRetry},
		{"3", 3},
		{"10", 10},
	}

	for _, test := range tests {
		require.Equalf(t, test.expected, parseTxRetry(test.value), "value %q", test.value)
	}
}
