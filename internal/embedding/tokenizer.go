package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	tokenCLS = 101
	tokenSEP = 102
	// Word ids are hashed into [vocabOffset, vocabSize) so they never collide with the
	// reserved and special ids of a BERT vocabulary.
	vocabOffset = 1000
	vocabSize   = 30522

	defaultMaxTokens = 256
)

// Tokenizer produces the three BERT input rows for text, each exactly maxTokens long.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer maps whole words to hashed vocabulary ids. It is not a WordPiece tokenizer,
// so embeddings from it only approximate those of the original model.
type SimpleTokenizer struct{}

// Tokenize frames the words of text as [CLS] w1 .. wn [SEP], truncating words that do not fit,
// and zero-pads to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	seq := make([]int64, 0, maxTokens)
	seq = append(seq, tokenCLS)
	for _, w := range SplitWords(text) {
		if len(seq) >= maxTokens-1 {
			break
		}
		seq = append(seq, wordID(w))
	}
	if len(seq) < maxTokens {
		seq = append(seq, tokenSEP)
	}

	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	copy(inputIDs, seq)
	for i := range seq {
		attentionMask[i] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords lowercases text and splits it on anything that is not a letter or digit.
// It returns nil when text has no words.
func SplitWords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}
	return words
}

func wordID(w string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(w))
	return vocabOffset + int64(h.Sum32()%(vocabSize-vocabOffset))
}
