package extract

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates token counts with the cl100k_base encoding. A nil
// counter falls back to a characters/4 heuristic so metadata never depends
// on the encoding being available.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenCounter() (*TokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get tiktoken encoding: %w", err)
	}
	return &TokenCounter{encoding: encoding}, nil
}

func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.encoding == nil {
		return len(text) / 4
	}
	return len(tc.encoding.Encode(text, nil, nil))
}
