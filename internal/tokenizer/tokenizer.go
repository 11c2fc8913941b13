// Package tokenizer counts tokens in agent context text.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/rendis/flowcost/pkg/schema"
)

// DefaultEncoding is the BPE used by the GPT-4 model family.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in text. Implementations must be deterministic and
// safe for concurrent use.
type Counter interface {
	Count(text string) int
}

// BPE counts tokens with a tiktoken byte-pair encoding. Vocabularies are
// loaded from data compiled into the binary, never from the network.
type BPE struct {
	enc  *tiktoken.Tiktoken
	name string
	mu   sync.Mutex // tiktoken's encoder caches internally
}

var loaderOnce sync.Once

// NewBPE loads the named encoding.
func NewBPE(encoding string) (*BPE, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeCatalog, "load encoding %s: %v", encoding, err).WithCause(err)
	}
	return &BPE{enc: enc, name: encoding}, nil
}

// Encoding returns the encoding name.
func (b *BPE) Encoding() string { return b.name }

// Count returns the number of tokens in text; empty text counts as zero.
func (b *BPE) Count(text string) int {
	if text == "" {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.enc.Encode(text, nil, nil))
}

// Whitespace approximates token counts by splitting on whitespace. Useful
// as a fixed, dependency-free counter in tests.
type Whitespace struct{}

// Count returns the number of whitespace-separated words in text.
func (Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

var (
	_ Counter = (*BPE)(nil)
	_ Counter = Whitespace{}
)
