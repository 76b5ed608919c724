package participant

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens of a piece of text.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// TiktokenCounter counts tokens with the tiktoken encoding of an OpenAI-family
// model. The encoding is loaded lazily on first use (it may be downloaded).
type TiktokenCounter struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// modelEncodings maps a model name prefix to its tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-5":         "o200k_base",
	"gpt-4o":        "o200k_base",
	"gpt-4.1":       "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// NewTiktokenCounter creates a counter for model; unknown models fall back to
// cl100k_base.
func NewTiktokenCounter(model string) *TiktokenCounter {
	encoding, ok := modelEncodings[model]
	if !ok {
		// 尝试最长前缀匹配
		best := 0
		for prefix, enc := range modelEncodings {
			if strings.HasPrefix(model, prefix) && len(prefix) > best {
				encoding, best = enc, len(prefix)
			}
		}
		if best == 0 {
			encoding = "cl100k_base"
		}
	}
	return &TiktokenCounter{model: model, encoding: encoding}
}

// Encoding returns the tiktoken encoding name.
func (t *TiktokenCounter) Encoding() string {
	return t.encoding
}

func (t *TiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens implements TokenCounter.
func (t *TiktokenCounter) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// EstimateCounter approximates token counts without any encoding data:
// one token per CJK rune, one per four other runes.
type EstimateCounter struct{}

// CountTokens implements TokenCounter.
func (EstimateCounter) CountTokens(text string) (int, error) {
	cjk, other := 0, 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			other++
		}
	}
	return cjk + (other+3)/4, nil
}
