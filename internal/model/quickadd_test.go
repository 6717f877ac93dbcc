package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuickAdd(t *testing.T) {
	tests := []struct {
		in   string
		want QuickAdd
	}{
		{"Buy milk", QuickAdd{Name: "Buy milk"}},
		{"Buy milk @Groceries due:tomorrow", QuickAdd{Name: "Buy milk", Project: "Groceries", Due: "tomorrow"}},
		{"due:2025-06-01T10:00 Milk", QuickAdd{Name: "Milk", Due: "2025-06-01T10:00"}},
		{"email @ bob", QuickAdd{Name: "email @ bob"}},
		{"a @one @two", QuickAdd{Name: "a @two", Project: "one"}},
		{"", QuickAdd{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuickAdd(tt.in))
		})
	}
}
