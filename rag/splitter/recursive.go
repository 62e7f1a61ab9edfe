package splitter

import (
	"strings"

	"github.com/levitang/llm-practice/rag"
)

// RecursiveCharacter splits on the first separator present in the text and
// recurses into pieces that are still too long with the remaining ones.
type RecursiveCharacter struct {
	opts options
}

var _ rag.Splitter = (*RecursiveCharacter)(nil)

func NewRecursiveCharacter(opts ...Option) *RecursiveCharacter {
	return &RecursiveCharacter{opts: newOptions(options{
		separators:    []string{"\n\n", "\n", " ", ""},
		keepSeparator: true,
	}, opts)}
}

func (s *RecursiveCharacter) SplitText(text string) []string {
	return s.split(text, s.opts.separators)
}

func (s *RecursiveCharacter) SplitDocuments(docs []rag.Document) ([]rag.Document, error) {
	return splitDocuments(s.opts, docs, s.SplitText), nil
}

func (s *RecursiveCharacter) split(text string, separators []string) []string {
	var (
		separator string
		rest      []string
	)
	if len(separators) > 0 {
		separator = separators[len(separators)-1]
	}
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, separator, s.opts.keepSeparator)
	mergeSep := separator
	if s.opts.keepSeparator {
		mergeSep = ""
	}

	var final, good []string
	for _, piece := range splits {
		if s.opts.lengthFunc(piece) < s.opts.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, mergeSplits(s.opts, good, mergeSep)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, mergeSplits(s.opts, good, mergeSep)...)
	}
	return final
}
