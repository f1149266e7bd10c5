package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 3); got != 12 {
		t.Fatalf("Int: want 12, got %d", got)
	}
	t.Setenv("ENVUTIL_INT", "twelve")
	if got := Int("ENVUTIL_INT", 3); got != 3 {
		t.Fatalf("Int fallback: want 3, got %d", got)
	}
}

func TestBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"off", true, false},
		{"YES", false, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Setenv("ENVUTIL_BOOL", tc.raw)
			if got := Bool("ENVUTIL_BOOL", tc.def); got != tc.want {
				t.Fatalf("Bool(%q): want %v, got %v", tc.raw, tc.want, got)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("ENVUTIL_DUR", "1500ms")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("Duration: got %s", got)
	}
	t.Setenv("ENVUTIL_DUR", "7")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 7*time.Second {
		t.Fatalf("Duration seconds: got %s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("ENVUTIL_LIST", "http://a, ,http://b")
	got := List("ENVUTIL_LIST", nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("List: got %v", got)
	}
}
