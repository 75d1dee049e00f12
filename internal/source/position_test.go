package source

import "testing"

func TestPosition_String(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		expected string
	}{
		{
			name:     "valid position",
			pos:      Position{Filename: "test.em", Line: 42, Column: 15, Offset: 100},
			expected: "test.em:42:15",
		},
		{
			name:     "zero position",
			pos:      Position{},
			expected: ":0:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.String(); got != tt.expected {
				t.Errorf("Position.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPosition_IsValid(t *testing.T) {
	if (Position{}).IsValid() {
		t.Error("zero Position should be invalid")
	}
	if !(Position{Line: 1}).IsValid() {
		t.Error("Position with Line 1 should be valid")
	}
}

func TestPosition_BeforeAfter(t *testing.T) {
	a := Position{Offset: 5}
	b := Position{Offset: 10}

	if !a.Before(b) {
		t.Error("expected a.Before(b)")
	}
	if !b.After(a) {
		t.Error("expected b.After(a)")
	}
	if a.Before(a) {
		t.Error("a.Before(a) should be false")
	}
}

func TestSpan_Contains(t *testing.T) {
	span := Span{
		Start: Position{Line: 1, Column: 1, Offset: 0},
		End:   Position{Line: 1, Column: 10, Offset: 9},
	}

	if !span.Contains(Position{Line: 1, Column: 5, Offset: 4}) {
		t.Error("expected span to contain offset 4")
	}
	if span.Contains(Position{Line: 1, Column: 20, Offset: 19}) {
		t.Error("span should not contain offset 19")
	}
}

func TestSpan_String(t *testing.T) {
	sameLine := Span{
		Start: Position{Filename: "a.em", Line: 1, Column: 1},
		End:   Position{Filename: "a.em", Line: 1, Column: 8},
	}
	if got, want := sameLine.String(), "a.em:1:1-8"; got != want {
		t.Errorf("Span.String() = %q, want %q", got, want)
	}

	multiLine := Span{
		Start: Position{Filename: "a.em", Line: 1, Column: 1},
		End:   Position{Filename: "a.em", Line: 3, Column: 2},
	}
	if got, want := multiLine.String(), "a.em:1:1-3:2"; got != want {
		t.Errorf("Span.String() = %q, want %q", got, want)
	}
}
