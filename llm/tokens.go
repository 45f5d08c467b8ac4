package llm

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// tokenizer is shared; tiktoken encoding construction loads a vocabulary
// and is too expensive to repeat per call.
var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
	tokenizerErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	tokenizerOnce.Do(func() {
		tokenizer, tokenizerErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tokenizer, tokenizerErr
}

// CountTokens returns the number of tokens in text under the cl100k_base
// encoding. Falls back to a bytes/4 estimate if the encoding cannot load.
func CountTokens(text string) int {
	enc, err := encoding()
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// TruncateToTokens returns text cut down to at most budget tokens. The cut
// lands on the token boundary, not mid-rune.
func TruncateToTokens(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	enc, err := encoding()
	if err != nil {
		// Estimate: ~4 bytes per token.
		return truncateBytes(text, budget*4)
	}
	ids := enc.Encode(text, nil, nil)
	if len(ids) <= budget {
		return text
	}
	return enc.Decode(ids[:budget])
}

// truncateBytes cuts text to at most max bytes, backing up to the nearest
// rune boundary so the result stays valid UTF-8.
func truncateBytes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}

// JoinWithinBudget concatenates items with sep, stopping before the total
// would exceed budget tokens. At least one item is always included, itself
// truncated to the budget if oversized.
func JoinWithinBudget(items []string, sep string, budget int) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	sepTokens := CountTokens(sep)
	for i, item := range items {
		cost := CountTokens(item)
		if i > 0 {
			cost += sepTokens
		}
		if used+cost > budget {
			if i == 0 {
				return TruncateToTokens(item, budget)
			}
			break
		}
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(item)
		used += cost
	}
	return b.String()
}
