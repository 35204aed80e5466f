package raw

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("RAW_SET", "  json ")
	t.Setenv("RAW_BLANK", "   ")
	if got := Get("RAW_SET", "console"); got != "json" {
		t.Fatalf("set = %q", got)
	}
	if got := Get("RAW_BLANK", "console"); got != "console" {
		t.Fatalf("blank = %q", got)
	}
	if got := Get("RAW_UNSET_XYZ", "console"); got != "console" {
		t.Fatalf("unset = %q", got)
	}
}

func TestBool(t *testing.T) {
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{"f", true, false},
		{"yes", true, true},
		{"", true, true},
	}
	for _, tc := range cases {
		t.Setenv("RAW_FLAG", tc.val)
		if got := Bool("RAW_FLAG", tc.def); got != tc.want {
			t.Fatalf("Bool(%q, %v) = %v", tc.val, tc.def, got)
		}
	}
}

func TestInt(t *testing.T) {
	t.Setenv("RAW_N", " 5 ")
	if got := Int("RAW_N", 1); got != 5 {
		t.Fatalf("set = %d", got)
	}
	t.Setenv("RAW_N", "five")
	if got := Int("RAW_N", 1); got != 1 {
		t.Fatalf("unparsable = %d", got)
	}
}
