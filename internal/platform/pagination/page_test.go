package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 50, Max: 200}
	tests := []struct {
		in   int
		want int
	}{
		{0, 50},
		{-3, 50},
		{10, 10},
		{500, 200},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Errorf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Errorf("ClampPageSize with empty config = %d, want 1", got)
	}
}
