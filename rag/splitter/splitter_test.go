package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/rag"
)

func TestRecursiveCharacter_ShortText(t *testing.T) {
	s := NewRecursiveCharacter()
	assert.Equal(t, []string{"hello world"}, s.SplitText("hello world"))
}

func TestRecursiveCharacter_RespectsChunkSize(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(0))
	chunks := s.SplitText("aaaa bbbb cccc dddd")

	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestRecursiveCharacter_Overlap(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(5))
	chunks := s.SplitText("aaaa bbbb cccc dddd")

	assert.Equal(t, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}, chunks)
}

func TestRecursiveCharacter_InvalidSizes(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(5), WithChunkOverlap(-1))
	var chunks []string
	require.NotPanics(t, func() { chunks = s.SplitText("aaa bbb ccc ddd") })
	assert.Equal(t, []string{"aaa", "bbb", "ccc", "ddd"}, chunks)

	s = NewRecursiveCharacter(WithChunkSize(0))
	assert.Equal(t, []string{"hello world"}, s.SplitText("hello world"))
}

func TestRecursiveCharacter_PrefersParagraphs(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(20), WithChunkOverlap(0))
	chunks := s.SplitText("first paragraph\n\nsecond paragraph")

	assert.Equal(t, []string{"first paragraph", "second paragraph"}, chunks)
}

func TestRecursiveCharacter_CountsRunes(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(4), WithChunkOverlap(0))
	chunks := s.SplitText("如何生成短链数据库")

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 4)
	}
	assert.Equal(t, "如何生成短链数据库", strings.Join(chunks, ""))
}

func TestSplitDocuments_Metadata(t *testing.T) {
	text := "aaaa bbbb cccc dddd"
	s := NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(5), AddStartIndex())

	chunks, err := s.SplitDocuments([]rag.Document{{ID: "doc", PageContent: text, Metadata: map[string]any{"source": "x"}}})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, "x", c.Metadata["source"])
		assert.Equal(t, i, c.Metadata["chunk_index"])
		assert.Equal(t, 3, c.Metadata["chunk_total"])
		assert.Equal(t, "doc", c.Metadata["parent_id"])
		start := c.Metadata["start_index"].(int)
		assert.Equal(t, c.PageContent, text[start:start+len(c.PageContent)])
	}
	assert.Equal(t, "doc_chunk_1", chunks[1].ID)
	assert.Equal(t, 5, chunks[1].Metadata["start_index"])
}

func TestCharacter(t *testing.T) {
	s := NewCharacter("\n\n", WithChunkSize(12), WithChunkOverlap(0))
	chunks := s.SplitText("one\n\ntwo\n\nthree four five")

	assert.Equal(t, []string{"one\n\ntwo", "three four five"}, chunks)
}

const goSource = `package dos

type CloudifyConfigDo struct {
	Name string
}

func (c *CloudifyConfigDo) Validate() error {
	return nil
}

func NewCloudifyConfigDo() *CloudifyConfigDo {
	return &CloudifyConfigDo{}
}
`

func TestLanguage_Go(t *testing.T) {
	s, err := NewLanguage(Go, WithChunkSize(100), WithChunkOverlap(0))
	require.NoError(t, err)

	chunks := s.SplitText(goSource)
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0], "package dos"))
	assert.True(t, strings.HasPrefix(chunks[1], "func (c *CloudifyConfigDo) Validate()"))
	assert.True(t, strings.HasPrefix(chunks[2], "func NewCloudifyConfigDo()"))
}

func TestLanguage_Unsupported(t *testing.T) {
	_, err := NewLanguage(Language("cobol"))
	assert.Error(t, err)
}
