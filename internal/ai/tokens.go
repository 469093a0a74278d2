package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter считает токены для окна памяти.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter выбирает кодировку модели; для неизвестных моделей - cl100k_base.
// Если кодировка недоступна, Count оценивает 4 символа на токен.
func NewTokenCounter(model string) *TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return &TokenCounter{}
		}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the number of tokens in text.
func (t *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.enc == nil {
		return (len([]rune(text)) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Tail оставляет последние limit токенов текста.
func (t *TokenCounter) Tail(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if t == nil || t.enc == nil {
		runes := []rune(text)
		if len(runes) <= limit*4 {
			return text
		}
		return string(runes[len(runes)-limit*4:])
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return t.enc.Decode(tokens[len(tokens)-limit:])
}
