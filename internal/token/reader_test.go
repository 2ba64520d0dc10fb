package token

import (
	"strings"
	"testing"
)

func TestReaderReadAll(t *testing.T) {
	input := "1\nclass\n1\ntype\nMain\n2\nidentifier\nfoo\n2\nlparen\n"
	toks, err := NewReader(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}

	want := []Token{
		{Line: 1, Type: CLASS},
		{Line: 1, Type: TYPE, Literal: "Main"},
		{Line: 2, Type: IDENTIFIER, Literal: "foo"},
		{Line: 2, Type: LPAREN},
	}

	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tok := range toks {
		if tok != want[i] {
			t.Errorf("token %d: got %+v, want %+v", i, tok, want[i])
		}
	}
}

func TestReaderMissingPayload(t *testing.T) {
	input := "1\nidentifier\n"
	_, err := NewReader(strings.NewReader(input)).ReadAll()
	if err == nil {
		t.Fatal("expected error for missing payload line, got nil")
	}
}

func TestReaderUnknownTokenType(t *testing.T) {
	input := "1\nbogus\n"
	_, err := NewReader(strings.NewReader(input)).ReadAll()
	if err == nil {
		t.Fatal("expected error for unrecognized token type, got nil")
	}
}

func TestLookupRoundTrip(t *testing.T) {
	for typ, name := range names {
		got, ok := Lookup(name)
		if !ok || got != typ {
			t.Errorf("Lookup(%q) = %v, %v; want %v, true", name, got, ok, typ)
		}
	}
}
