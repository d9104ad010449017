package media

import (
	"strings"
	"testing"
)

func TestPublicID(t *testing.T) {
	tests := []struct {
		in, prefix string
	}{
		{"Red Sneakers.PNG", "red-sneakers-"},
		{"uploads/ankara dress.jpeg", "ankara-dress-"},
		{".png", "image-"},
		{"", "image-"},
	}
	for _, tt := range tests {
		got := publicID(tt.in)
		if !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("publicID(%q) = %q, want prefix %q", tt.in, got, tt.prefix)
		}
	}
	if publicID("a.png") == publicID("a.png") {
		t.Error("ids collide")
	}
}

func TestNewCloudinary_RequiresURL(t *testing.T) {
	if _, err := NewCloudinary(Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}
