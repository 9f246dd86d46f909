package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
}

func TestMatchesETag(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`*`, true},
		{`"abd"`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := MatchesETag(tt.header, "abc"); got != tt.want {
			t.Errorf("MatchesETag(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
	if ETag("abc") != `"abc"` {
		t.Errorf("ETag = %s", ETag("abc"))
	}
}
