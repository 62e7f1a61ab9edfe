// Package splitter breaks documents into overlapping chunks.
package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/levitang/llm-practice/log"
	"github.com/levitang/llm-practice/rag"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

type options struct {
	chunkSize     int
	chunkOverlap  int
	separators    []string
	lengthFunc    func(string) int
	addStartIndex bool
	keepSeparator bool
}

// Option configures a splitter.
type Option func(*options)

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) Option {
	return func(o *options) { o.chunkSize = size }
}

// WithChunkOverlap sets how much consecutive chunks may share.
func WithChunkOverlap(overlap int) Option {
	return func(o *options) { o.chunkOverlap = overlap }
}

// WithSeparators sets the separators tried in order.
func WithSeparators(separators ...string) Option {
	return func(o *options) { o.separators = separators }
}

// WithLengthFunction measures chunks. The default counts runes.
func WithLengthFunction(fn func(string) int) Option {
	return func(o *options) { o.lengthFunc = fn }
}

// AddStartIndex records the rune offset of each chunk in its parent
// document under the start_index metadata key.
func AddStartIndex() Option {
	return func(o *options) { o.addStartIndex = true }
}

// WithKeepSeparator keeps separators at the start of the following split.
func WithKeepSeparator(keep bool) Option {
	return func(o *options) { o.keepSeparator = keep }
}

func newOptions(base options, opts []Option) options {
	base.chunkSize = DefaultChunkSize
	base.chunkOverlap = DefaultChunkOverlap
	base.lengthFunc = utf8.RuneCountInString
	for _, opt := range opts {
		opt(&base)
	}
	if base.chunkSize <= 0 {
		log.Warn("chunk size %d is not positive, using %d", base.chunkSize, DefaultChunkSize)
		base.chunkSize = DefaultChunkSize
	}
	if base.chunkOverlap < 0 {
		log.Warn("chunk overlap %d is negative, using 0", base.chunkOverlap)
		base.chunkOverlap = 0
	}
	if base.chunkOverlap > base.chunkSize {
		log.Warn("chunk overlap %d is larger than chunk size %d, using 0", base.chunkOverlap, base.chunkSize)
		base.chunkOverlap = 0
	}
	return base
}

// splitDocuments applies split to every document and stamps chunk metadata.
func splitDocuments(o options, docs []rag.Document, split func(string) []string) []rag.Document {
	var out []rag.Document
	for _, doc := range docs {
		chunks := split(doc.PageContent)
		from := 0
		for i, chunk := range chunks {
			meta := rag.CloneMetadata(doc.Metadata)
			meta["chunk_index"] = i
			meta["chunk_total"] = len(chunks)
			if o.addStartIndex {
				meta["start_index"] = -1
				if idx := strings.Index(doc.PageContent[from:], chunk); idx >= 0 {
					start := from + idx
					meta["start_index"] = utf8.RuneCountInString(doc.PageContent[:start])
					from = start + 1
				}
			}
			c := rag.Document{PageContent: chunk, Metadata: meta}
			if doc.ID != "" {
				c.ID = fmt.Sprintf("%s_chunk_%d", doc.ID, i)
				meta["parent_id"] = doc.ID
			}
			out = append(out, c)
		}
	}
	return out
}

// mergeSplits joins small splits into chunks no longer than chunkSize,
// carrying up to chunkOverlap of the previous chunk into the next one.
func mergeSplits(o options, splits []string, separator string) []string {
	sepLen := o.lengthFunc(separator)
	var (
		docs    []string
		current []string
		total   int
	)
	sepIf := func(cond bool) int {
		if cond {
			return sepLen
		}
		return 0
	}
	for _, s := range splits {
		l := o.lengthFunc(s)
		if total+l+sepIf(len(current) > 0) > o.chunkSize {
			if total > o.chunkSize {
				log.Warn("created a chunk of size %d, which is longer than the specified %d", total, o.chunkSize)
			}
			if len(current) > 0 {
				if doc := joinSplits(current, separator); doc != "" {
					docs = append(docs, doc)
				}
				for total > o.chunkOverlap || (total+l+sepIf(len(current) > 0) > o.chunkSize && total > 0) {
					total -= o.lengthFunc(current[0]) + sepIf(len(current) > 1)
					current = current[1:]
				}
			}
		}
		current = append(current, s)
		total += l + sepIf(len(current) > 1)
	}
	if doc := joinSplits(current, separator); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinSplits(splits []string, separator string) string {
	return strings.TrimSpace(strings.Join(splits, separator))
}

// splitOn splits text on separator. With keep the separator stays at the
// start of each following piece. Empty pieces are dropped.
func splitOn(text, separator string, keep bool) []string {
	var parts []string
	if separator == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.Split(text, separator)
	for i, p := range raw {
		if keep && i > 0 {
			p = separator + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
