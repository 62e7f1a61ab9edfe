package splitter

import "github.com/levitang/llm-practice/rag"

// Character splits on a single separator and merges the pieces.
type Character struct {
	separator string
	opts      options
}

var _ rag.Splitter = (*Character)(nil)

// NewCharacter splits on separator, "\n\n" when empty.
func NewCharacter(separator string, opts ...Option) *Character {
	if separator == "" {
		separator = "\n\n"
	}
	return &Character{separator: separator, opts: newOptions(options{}, opts)}
}

func (s *Character) SplitText(text string) []string {
	sep := s.separator
	if s.opts.keepSeparator {
		return mergeSplits(s.opts, splitOn(text, sep, true), "")
	}
	return mergeSplits(s.opts, splitOn(text, sep, false), sep)
}

func (s *Character) SplitDocuments(docs []rag.Document) ([]rag.Document, error) {
	return splitDocuments(s.opts, docs, s.SplitText), nil
}
