package include

import (
	"errors"
	"testing"
)

func TestParseSpan(t *testing.T) {
	tests := []struct {
		span string
		want Selection
	}{
		{"", Selection{Kind: SelectRange, Range: Full()}},
		{"5", Selection{Kind: SelectRange, Range: Bounded(4, 5)}},
		{"1", Selection{Kind: SelectRange, Range: Bounded(0, 1)}},
		{"0", Selection{Kind: SelectRange, Range: Bounded(0, 1)}},
		{"2:4", Selection{Kind: SelectRange, Range: Bounded(1, 4)}},
		{":3", Selection{Kind: SelectRange, Range: To(3)}},
		{"2:", Selection{Kind: SelectRange, Range: From(1)}},
		{"2:x", Selection{Kind: SelectRange, Range: From(1)}},
		{":", Selection{Kind: SelectRange, Range: Full()}},
		{":x", Selection{Kind: SelectRange, Range: Full()}},
		{"2:4:9", Selection{Kind: SelectRange, Range: Bounded(1, 4)}},
		{"intro", Selection{Kind: SelectAnchor, Anchor: "intro"}},
		{"intro:3", Selection{Kind: SelectAnchor, Anchor: "intro"}},
		{"-3", Selection{Kind: SelectAnchor, Anchor: "-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.span, func(t *testing.T) {
			if got := ParseSpan(tt.span); got != tt.want {
				t.Errorf("ParseSpan(%q) = %+v, want %+v", tt.span, got, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	d, err := ParseArgs("https://example.com/src/lib.rs 3:7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Kind != DirectiveWebInclude {
		t.Fatalf("expected web include, got %v", d.Kind)
	}
	if d.URL.String() != "https://example.com/src/lib.rs" {
		t.Errorf("unexpected url %q", d.URL)
	}
	if want := (Selection{Kind: SelectRange, Range: Bounded(2, 7)}); d.Selection != want {
		t.Errorf("selection = %+v, want %+v", d.Selection, want)
	}
}

func TestParseArgs_NoSpan(t *testing.T) {
	d, err := ParseArgs("http://example.com/a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (Selection{Kind: SelectRange, Range: Full()}); d.Selection != want {
		t.Errorf("selection = %+v, want %+v", d.Selection, want)
	}
}

func TestParseArgs_MalformedURL(t *testing.T) {
	for _, args := range []string{"not-a-url", "/relative/path 3", "http:// 1", "://x"} {
		_, err := ParseArgs(args)
		if !errors.Is(err, ErrMalformedURL) {
			t.Errorf("ParseArgs(%q): expected ErrMalformedURL, got %v", args, err)
		}
	}
}
