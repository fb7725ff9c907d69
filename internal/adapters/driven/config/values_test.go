package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoercion(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		str   string
		num   int
		float float64
	}{
		{name: "string", in: "qdrant", str: "qdrant"},
		{name: "int", in: 5, num: 5, float: 5},
		{name: "toml integer", in: int64(1000), num: 1000, float: 1000},
		{name: "toml float", in: 0.3, num: 0, float: 0.3},
		{name: "whole float", in: 5.0, num: 5, float: 5},
		{name: "float32", in: float32(0.5), float: 0.5},
		{name: "bool", in: true},
		{name: "nil", in: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, String(tt.in))
			assert.Equal(t, tt.num, Int(tt.in))
			assert.InDelta(t, tt.float, Float(tt.in), 1e-6)
		})
	}
}
