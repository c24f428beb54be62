package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/w-h-a/consult/embedder"
)

const DefaultDimension = 384

const bigramWeight = 0.5

// hashingEmbedder is a signed feature-hashing bag of unigrams and bigrams.
// It needs no model download and gives the same vector for the same text on every run.
type hashingEmbedder struct {
	options embedder.Options
}

func (e *hashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.options.Dimension)

	tokens := tokenize(text)

	for i, token := range tokens {
		e.add(vec, token, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+token, bigramWeight)
		}
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}

	if sumSq > 0 {
		norm := float32(1 / math.Sqrt(sumSq))
		for i := range vec {
			vec[i] *= norm
		}
	}

	return vec, nil
}

func (e *hashingEmbedder) Dimension() int {
	return e.options.Dimension
}

func (e *hashingEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(len(vec)))

	if sum>>63 == 1 {
		weight = -weight
	}

	vec[idx] += weight
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}

	return tokens
}

func NewEmbedder(opts ...embedder.Option) (embedder.Embedder, error) {
	options := embedder.NewOptions(opts...)

	if options.Dimension == 0 {
		options.Dimension = DefaultDimension
	}

	if options.Dimension < 0 {
		return nil, errors.New("hashing embedder dimension must be positive")
	}

	return &hashingEmbedder{options: options}, nil
}

var stopWords = map[string]bool{
	// english
	"i": true, "me": true, "my": true, "we": true, "our": true, "you": true, "your": true,
	"he": true, "him": true, "his": true, "she": true, "her": true, "it": true, "its": true,
	"they": true, "them": true, "their": true, "what": true, "which": true, "who": true,
	"whom": true, "this": true, "that": true, "these": true, "those": true, "am": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true, "a": true,
	"an": true, "the": true, "and": true, "but": true, "if": true, "or": true, "as": true,
	"of": true, "at": true, "by": true, "for": true, "with": true, "about": true, "to": true,
	"from": true, "in": true, "on": true, "so": true, "than": true, "too": true, "very": true,
	"can": true, "will": true, "just": true, "there": true, "here": true, "when": true,
	"where": true, "how": true,
	// portuguese
	"o": true, "os": true, "um": true, "uma": true, "de": true,
	"da": true, "dos": true, "das": true, "em": true, "no": true, "na": true, "nos": true,
	"nas": true, "e": true, "que": true, "se": true, "com": true, "por": true, "para": true,
	"eu": true, "ele": true, "ela": true, "voce": true, "você": true, "tem": true, "está": true,
	"esta": true, "é": true, "foi": true, "mas": true, "ao": true, "qual": true, "quais": true,
}
