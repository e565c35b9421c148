package storage

import (
	"strings"
	"testing"
)

func TestPostImageKey(t *testing.T) {
	k1 := PostImageKey()
	k2 := PostImageKey()

	if !strings.HasPrefix(k1, "post_images/") {
		t.Errorf("key %q missing post_images/ prefix", k1)
	}
	if k1 == k2 {
		t.Error("keys should be unique per call")
	}
}

func TestProfileImageKey(t *testing.T) {
	k := ProfileImageKey("user-1")
	if !strings.HasPrefix(k, "profile_images/user-1/") {
		t.Errorf("key %q missing profile_images/<user>/ prefix", k)
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "post image URL",
			url:      "http://localhost:9000/unfit20-media/post_images/abc-123",
			expected: "post_images/abc-123",
		},
		{
			name:     "profile image URL",
			url:      "https://media.example.com/unfit20-media/profile_images/u1/xyz",
			expected: "profile_images/u1/xyz",
		},
		{
			name:     "foreign URL",
			url:      "https://elsewhere.example.com/some/image.png",
			expected: "",
		},
		{
			name:     "empty URL",
			url:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyFromURL(tt.url); got != tt.expected {
				t.Errorf("KeyFromURL(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}
