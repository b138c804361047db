package core

import "testing"

func TestStringHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{itoa(0), "0"},
		{itoa(-42), "-42"},
		{itoa(1472), "1472"},
		{ftoa(125.30941), "125.31"},
		{ftoa(-0.5), "-0.50"},
		{quoteByte('0'), "'0'"},
		{quoteByte(0x0a), "10"},
		{quoteByte(0xff), "255"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, tt.got)
		}
	}
}
