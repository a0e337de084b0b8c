// Package onnx embeds text locally with a sentence-transformer model run by
// ONNX Runtime. The embedder needs the onnx build tag; the tokenizer does not.
package onnx

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Tokenizer is a lowercasing WordPiece tokenizer read from a HuggingFace
// tokenizer.json.
type Tokenizer struct {
	vocab map[string]int
	cls   int
	sep   int
	unk   int
}

// LoadTokenizer reads the vocabulary from a tokenizer.json file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read tokenizer", goerr.V("path", path))
	}

	var raw struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse tokenizer", goerr.V("path", path))
	}
	if len(raw.Model.Vocab) == 0 {
		return nil, goerr.New("tokenizer has no vocabulary", goerr.V("path", path))
	}

	return NewTokenizer(raw.Model.Vocab), nil
}

// NewTokenizer creates a tokenizer over vocab. Missing special tokens fall
// back to the standard BERT ids.
func NewTokenizer(vocab map[string]int) *Tokenizer {
	lookup := func(token string, fallback int) int {
		if id, ok := vocab[token]; ok {
			return id
		}
		return fallback
	}
	return &Tokenizer{
		vocab: vocab,
		cls:   lookup("[CLS]", 101),
		sep:   lookup("[SEP]", 102),
		unk:   lookup("[UNK]", 100),
	}
}

// Tokenize converts text to token ids without special tokens.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		tokens = append(tokens, t.wordPiece(word)...)
	}
	return tokens
}

// Encode returns input ids and attention mask padded to maxLen, framed by
// [CLS] and [SEP]. Long inputs are truncated.
func (t *Tokenizer) Encode(text string, maxLen int) (ids, mask []int64) {
	tokens := t.Tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)

	ids[0], mask[0] = int64(t.cls), 1
	for i, tok := range tokens {
		ids[i+1], mask[i+1] = tok, 1
	}
	end := len(tokens) + 1
	ids[end], mask[end] = int64(t.sep), 1
	return ids, mask
}

// wordPiece splits word greedily into the longest known prefixes.
func (t *Tokenizer) wordPiece(word string) []int64 {
	var out []int64
	for start := 0; start < len(word); {
		end := len(word)
		for ; end > start; end-- {
			sub := word[start:end]
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				out = append(out, int64(id))
				break
			}
		}
		if end == start {
			out = append(out, int64(t.unk))
			start++
			continue
		}
		start = end
	}
	return out
}
