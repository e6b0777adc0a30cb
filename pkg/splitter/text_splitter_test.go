package splitter

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewRecursiveCharacterValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{"defaults", nil, false},
		{"overlap below size", []Option{WithChunkSize(100), WithChunkOverlap(99)}, false},
		{"overlap equals size", []Option{WithChunkSize(100), WithChunkOverlap(100)}, true},
		{"overlap above size", []Option{WithChunkSize(100), WithChunkOverlap(150)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecursiveCharacter(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRecursiveCharacter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrOverlapTooLarge) {
				t.Errorf("error = %v, want ErrOverlapTooLarge", err)
			}
		})
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		overlap  int
		input    string
		expected []string
	}{
		{
			name:     "empty input",
			size:     100,
			overlap:  10,
			input:    "",
			expected: nil,
		},
		{
			name:     "whitespace only trims to nothing",
			size:     100,
			overlap:  10,
			input:    "   ",
			expected: nil,
		},
		{
			name:     "short text fits in one chunk",
			size:     100,
			overlap:  10,
			input:    "a single short sentence",
			expected: []string{"a single short sentence"},
		},
		{
			name:     "paragraph separator wins over finer ones",
			size:     12,
			overlap:  0,
			input:    "alpha beta\n\ngamma delta",
			expected: []string{"alpha beta", "gamma delta"},
		},
		{
			name:     "word split carries overlap into next chunk",
			size:     10,
			overlap:  3,
			input:    "one two three four five six",
			expected: []string{"one two", "two three", "four five", "six"},
		},
		{
			name:     "oversized piece recurses onto a finer separator",
			size:     6,
			overlap:  2,
			input:    "aaaa.bbbb,cccc",
			expected: []string{"aaaa", "bbbb", "cccc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewRecursiveCharacter(WithChunkSize(tt.size), WithChunkOverlap(tt.overlap))
			if err != nil {
				t.Fatalf("NewRecursiveCharacter() error = %v", err)
			}
			got := s.SplitText(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitText(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	s, err := NewRecursiveCharacter(WithChunkSize(20), WithChunkOverlap(5))
	if err != nil {
		t.Fatalf("NewRecursiveCharacter() error = %v", err)
	}
	input := "First sentence here. Second one follows, with a clause.\n\nA new paragraph [tagged] ends the sample text."

	first := s.SplitText(input)
	second := s.SplitText(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated SplitText calls differ: %v vs %v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("expected at least one chunk")
	}
}

func TestSplitTextChunkSizeBound(t *testing.T) {
	s, err := NewRecursiveCharacter(WithChunkSize(50), WithChunkOverlap(10))
	if err != nil {
		t.Fatalf("NewRecursiveCharacter() error = %v", err)
	}
	// No separator occurs except the single-character fallback.
	input := strings.Repeat("x", 5000)

	chunks := s.SplitText(input)
	if len(chunks) == 0 {
		t.Fatal("expected chunks for long input")
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d characters, want <= 50", i, n)
		}
	}
}

func TestSplitTextCountsRunesNotBytes(t *testing.T) {
	s, err := NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(0))
	if err != nil {
		t.Fatalf("NewRecursiveCharacter() error = %v", err)
	}
	input := strings.Repeat("é", 20)

	chunks := s.SplitText(input)
	want := []string{strings.Repeat("é", 9), strings.Repeat("é", 9), "éé"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("SplitText = %v, want %v", chunks, want)
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 10 {
			t.Errorf("chunk %d has %d characters, want <= 10", i, n)
		}
	}
}

func TestSplitTextPreservesOrder(t *testing.T) {
	s, err := NewRecursiveCharacter(WithChunkSize(16), WithChunkOverlap(0))
	if err != nil {
		t.Fatalf("NewRecursiveCharacter() error = %v", err)
	}
	input := "alpha section\n\nbeta section\n\ngamma section"

	chunks := s.SplitText(input)
	joined := strings.Join(chunks, "|")
	posAlpha := strings.Index(joined, "alpha")
	posBeta := strings.Index(joined, "beta")
	posGamma := strings.Index(joined, "gamma")
	if posAlpha == -1 || posBeta == -1 || posGamma == -1 {
		t.Fatalf("missing section in chunks %v", chunks)
	}
	if !(posAlpha < posBeta && posBeta < posGamma) {
		t.Errorf("chunks out of order: %v", chunks)
	}
}

func TestMergeSplits(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		overlap   int
		splits    []string
		separator string
		expected  []string
	}{
		{
			name:      "pieces larger than overlap evict completely",
			size:      10,
			overlap:   3,
			splits:    []string{"aaaa", "bbbb", "cccc"},
			separator: "",
			expected:  []string{"aaaabbbb", "cccc"},
		},
		{
			name:      "tail pieces within overlap are carried over",
			size:      10,
			overlap:   5,
			splits:    []string{"aa", "bb", "cc", "dd", "ee"},
			separator: "",
			expected:  []string{"aabbccdd", "ccddee"},
		},
		{
			name:      "atomic oversized piece is emitted whole",
			size:      10,
			overlap:   3,
			splits:    []string{"abcdefghijkl"},
			separator: "",
			expected:  []string{"abcdefghijkl"},
		},
		{
			name:      "blank window is dropped",
			size:      5,
			overlap:   0,
			splits:    []string{"  ", " "},
			separator: " ",
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewRecursiveCharacter(WithChunkSize(tt.size), WithChunkOverlap(tt.overlap))
			if err != nil {
				t.Fatalf("NewRecursiveCharacter() error = %v", err)
			}
			got := s.MergeSplits(tt.splits, tt.separator)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("MergeSplits(%v, %q) = %v, want %v", tt.splits, tt.separator, got, tt.expected)
			}
		})
	}
}

func TestSplitTextCustomSeparators(t *testing.T) {
	s, err := NewRecursiveCharacter(
		WithChunkSize(8),
		WithChunkOverlap(0),
		WithSeparators([]string{"\n"}),
	)
	if err != nil {
		t.Fatalf("NewRecursiveCharacter() error = %v", err)
	}

	// The only separator never occurs, so the text cannot shrink and is
	// emitted whole rather than looping.
	got := s.SplitText("abcdefghijklmnop")
	want := []string{"abcdefghijklmnop"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitText = %v, want %v", got, want)
	}
}
