// Package tokenizer defines the pluggable line-fed token producer used when
// indexing file contents, along with the default word tokenizer.
package tokenizer

// Tokenizer is a stateful consumer of lines producing a finite,
// non-restartable sequence of tokens per line.
//
// FeedLine resets internal state and accepts one line without its trailing
// newline. FeedEOF notifies end of file, for tokenizers that buffer across
// lines. Next and Done drain the current sequence. Clone produces an
// independent instance with the same strategy so multiple files can be
// tokenized concurrently.
type Tokenizer interface {
	FeedLine(line string)
	FeedEOF()

	Next() string
	Done() bool

	Clone() Tokenizer
}

// WordTokenizer emits maximal runs of ASCII alphanumeric bytes.
// Case is preserved; no stemming. Tokens are substrings of the fed line.
type WordTokenizer struct {
	source string
	cursor int
	next   string
	done   bool
}

// NewWordTokenizer returns a word tokenizer ready for FeedLine.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{done: true}
}

// FeedLine resets the tokenizer to scan one line.
func (t *WordTokenizer) FeedLine(line string) {
	t.source = line
	t.cursor = t.skipNonWord(0)
	t.done = false
	t.findNext()
}

// FeedEOF is a no-op; word tokens never span lines.
func (t *WordTokenizer) FeedEOF() {}

// Next returns the pending token and advances.
func (t *WordTokenizer) Next() string {
	token := t.next
	t.findNext()
	return token
}

// Done reports whether the current line is drained.
func (t *WordTokenizer) Done() bool {
	return t.done
}

// Clone returns a fresh tokenizer with the same strategy.
func (t *WordTokenizer) Clone() Tokenizer {
	return NewWordTokenizer()
}

func (t *WordTokenizer) findNext() {
	if t.done {
		return
	}
	if t.cursor >= len(t.source) {
		t.done = true
		return
	}

	end := t.cursor
	for end < len(t.source) && isWordByte(t.source[end]) {
		end++
	}
	t.next = t.source[t.cursor:end]
	t.cursor = t.skipNonWord(end)
}

func (t *WordTokenizer) skipNonWord(from int) int {
	for from < len(t.source) && !isWordByte(t.source[from]) {
		from++
	}
	return from
}

func isWordByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
