package natsadapter_test

import (
	"testing"

	natsadapter "github.com/samirrijal/aptscout/internal/adapters/nats"
)

func TestMatchedSubject(t *testing.T) {
	tests := []struct {
		area string
		want string
	}{
		{"eby", "listings.matched.eby"},
		{"sfc", "listings.matched.sfc"},
		{"", "listings.matched.unknown"},
	}
	for _, tt := range tests {
		if got := natsadapter.MatchedSubject(tt.area); got != tt.want {
			t.Errorf("MatchedSubject(%q) = %q, want %q", tt.area, got, tt.want)
		}
	}
}
