package indexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/hyperjump/askme/internal/models"
)

// chunkNamespace seeds the name-based chunk ids.
var chunkNamespace = uuid.MustParse("6f1c0e2a-3b7d-4c55-9a8e-0d2f4b6a8c10")

// Chunker splits text into overlapping windows of tokens. A token is an ASCII-style word or a
// single CJK character, so unsegmented Chinese text still chunks by size.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap in tokens.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ChunkID returns the id of the index-th chunk of docID. Ids are stable across re-indexing.
func ChunkID(docID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s/%d", docID, index))).String()
}

// Chunk splits text into chunks of docID.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	var chunks []*models.DocumentChunk
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		idx := len(chunks)
		chunks = append(chunks, &models.DocumentChunk{
			ID:         ChunkID(docID, idx),
			DocumentID: docID,
			Content:    joinTokens(tokens[start:end]),
			ChunkIndex: idx,
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// isCJK covers ideographs, kana, hangul, CJK punctuation and full-width forms.
func isCJK(r rune) bool {
	if (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF) {
		return true
	}
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// joinTokens puts a space between tokens unless both sides are CJK characters.
func joinTokens(tokens []string) string {
	var b strings.Builder
	prevCJK := false
	for i, t := range tokens {
		cjk := isCJK([]rune(t)[0])
		if i > 0 && !(cjk && prevCJK) {
			b.WriteByte(' ')
		}
		b.WriteString(t)
		prevCJK = cjk
	}
	return b.String()
}
