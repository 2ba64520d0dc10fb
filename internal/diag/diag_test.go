package diag

import "testing"

func TestErrorFormat(t *testing.T) {
	err := New(PhaseTypeCheck, 12, "inheritance cycle: %s %s", "A", "B")
	want := "ERROR: 12: Type-Check: inheritance cycle: A B"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseError(t *testing.T) {
	err := ParseError(7, `"end"`)
	want := `ERROR: 7: Parser: parse error near "end"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
