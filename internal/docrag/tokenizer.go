package docrag

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer is the counting/encoding capability the chunker splits with.
// Decode(Encode(text)) must reproduce text.
type Tokenizer interface {
	CountTokens(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenTokenizer wraps the cl100k_base BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenTokenizer() (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	// Special-token text in docs is ordinary content, not control tokens.
	return t.enc.Encode(text, []string{"all"}, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
