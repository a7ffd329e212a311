package parser

import "testing"

func TestNormalizeHeader_TrimsAndFlattensLineBreaks(t *testing.T) {
	t.Parallel()

	if got := NormalizeHeader("  Field Op\nManager \t"); got != "Field Op Manager" {
		t.Fatalf("unexpected header: %q", got)
	}
	if got := headerKey(" RM's Territory "); got != "rm's territory" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestParseDecimal_ThousandSeparators(t *testing.T) {
	t.Parallel()

	d, ok := parseDecimal(" 1,234.50 ")
	if !ok {
		t.Fatalf("expected ok")
	}
	if d.String() != "1234.5" {
		t.Fatalf("unexpected value: %s", d.String())
	}

	if _, ok := parseDecimal("-"); ok {
		t.Fatalf("dash should be treated as blank")
	}
	if _, ok := parseDecimal("n/a"); ok {
		t.Fatalf("text should not parse")
	}
}

func TestIsNumeric(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"45292":      true,
		"45292.5":    true,
		" 12 ":       true,
		"":           false,
		"2024-01-01": false,
		"NaN":        false,
		"Inf":        false,
		"-Infinity":  false,
	}
	for in, want := range cases {
		if got := isNumeric(in); got != want {
			t.Fatalf("isNumeric(%q)=%v want %v", in, got, want)
		}
	}
}
