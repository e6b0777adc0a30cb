package splitter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators is the cascade tried in order when splitting. The empty
// string at the end always matches and splits into single characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", ",", ">", "<", " ", ""}

// ErrOverlapTooLarge reports an overlap that would keep the merge step from
// making forward progress.
var ErrOverlapTooLarge = errors.New("chunk overlap must be smaller than chunk size")

// RecursiveCharacter splits text on the coarsest separator present and packs
// the pieces into chunks of at most chunkSize characters, carrying up to
// chunkOverlap characters from the tail of one chunk into the next.
type RecursiveCharacter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// Option configures a RecursiveCharacter.
type Option func(*RecursiveCharacter)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(n int) Option {
	return func(s *RecursiveCharacter) { s.chunkSize = n }
}

// WithChunkOverlap sets how many characters are carried over between chunks.
func WithChunkOverlap(n int) Option {
	return func(s *RecursiveCharacter) { s.chunkOverlap = n }
}

// WithSeparators replaces the default separator cascade.
func WithSeparators(separators []string) Option {
	return func(s *RecursiveCharacter) { s.separators = separators }
}

// NewRecursiveCharacter builds a splitter, validating the configuration once.
func NewRecursiveCharacter(opts ...Option) (*RecursiveCharacter, error) {
	s := &RecursiveCharacter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("chunk size %d with overlap %d: %w", s.chunkSize, s.chunkOverlap, ErrOverlapTooLarge)
	}
	return s, nil
}

// SplitText splits text into chunks of at most the configured size. Pieces
// that no separator in the cascade can break up are emitted whole even when
// they exceed the chunk size.
func (s *RecursiveCharacter) SplitText(text string) []string {
	if text == "" {
		return nil
	}

	separator := s.separators[len(s.separators)-1]
	for _, sep := range s.separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			break
		}
	}

	// An empty separator splits after every rune.
	splits := strings.Split(text, separator)

	var chunks []string
	var pending []string
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.MergeSplits(pending, separator)...)
			pending = nil
		}
		if piece == text {
			// No separator occurred, so the piece cannot shrink further.
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, s.SplitText(piece)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.MergeSplits(pending, separator)...)
	}
	return chunks
}

// MergeSplits greedily packs pieces into chunks. When a chunk fills up it is
// joined with the separator and trimmed, then pieces are evicted from the
// front of the window until the carried tail fits within the overlap. Pieces
// are atomic: a single piece longer than the chunk size becomes its own
// chunk.
func (s *RecursiveCharacter) MergeSplits(splits []string, separator string) []string {
	var docs []string
	var current []string
	total := 0
	for _, piece := range splits {
		length := utf8.RuneCountInString(piece)
		if total+length >= s.chunkSize {
			if total > s.chunkSize {
				slog.Warn("created a chunk longer than the configured size",
					"size", total, "chunk_size", s.chunkSize)
			}
			if len(current) > 0 {
				if doc, ok := joinPieces(current, separator); ok {
					docs = append(docs, doc)
				}
				for len(current) > 0 &&
					(total > s.chunkOverlap || (total+length > s.chunkSize && total > 0)) {
					total -= utf8.RuneCountInString(current[0])
					current = current[1:]
				}
			}
		}
		current = append(current, piece)
		total += length
	}
	if doc, ok := joinPieces(current, separator); ok {
		docs = append(docs, doc)
	}
	return docs
}

func joinPieces(pieces []string, separator string) (string, bool) {
	text := strings.TrimSpace(strings.Join(pieces, separator))
	return text, text != ""
}
