package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryRequest_Limit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"25", 25},
		{" 25 ", 25},
		{"10abc", 10},
		{"1.9", 1},
		{"+7", 7},
		{"-3", -3},
		{"abc", 0},
		{"-", 0},
		{"99999999999999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := &HistoryRequest{Limit: tt.raw}
			assert.Equal(t, tt.want, req.limit())
		})
	}
}
