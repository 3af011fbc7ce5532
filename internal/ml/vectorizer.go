package ml

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Feature is one non-zero entry of a sparse vector.
type Feature struct {
	Index int
	Value float64
}

// Vector is a sparse vector with strictly increasing indices.
type Vector []Feature

func (v Vector) Dot(w []float64) float64 {
	var s float64
	for _, f := range v {
		s += f.Value * w[f.Index]
	}
	return s
}

// Vectorizer maps text to L2-normalised TF-IDF weights over character
// n-grams taken inside word boundaries.
type Vectorizer struct {
	MinN  int
	MaxN  int
	Vocab map[string]int
	IDF   []float64
}

func NewVectorizer(minN, maxN int) *Vectorizer {
	return &Vectorizer{MinN: minN, MaxN: maxN}
}

// CharNGrams pads each whitespace-separated word with one space on both
// sides and emits every n-gram of length minN..maxN. A word shorter than n
// contributes itself once.
func CharNGrams(text string, minN, maxN int) []string {
	var grams []string
	for _, word := range strings.FieldsFunc(strings.ToLower(text), unicode.IsSpace) {
		w := []rune(" " + word + " ")
		for n := minN; n <= maxN; n++ {
			if len(w) <= n {
				grams = append(grams, string(w))
				break
			}
			for i := 0; i+n <= len(w); i++ {
				grams = append(grams, string(w[i:i+n]))
			}
		}
	}
	return grams
}

// Fit learns the vocabulary and smoothed inverse document frequencies.
func (v *Vectorizer) Fit(docs []string) {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool)
		for _, g := range CharNGrams(d, v.MinN, v.MaxN) {
			if !seen[g] {
				seen[g] = true
				df[g]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for g := range df {
		terms = append(terms, g)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocab = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, g := range terms {
		v.Vocab[g] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[g]))) + 1
	}
}

// Dim is the number of features.
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

// Transform returns the TF-IDF vector of doc. Unknown n-grams are ignored;
// a doc without known n-grams yields an empty vector.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, g := range CharNGrams(doc, v.MinN, v.MaxN) {
		if idx, ok := v.Vocab[g]; ok {
			counts[idx]++
		}
	}
	vec := make(Vector, 0, len(counts))
	for idx, tf := range counts {
		vec = append(vec, Feature{Index: idx, Value: tf * v.IDF[idx]})
	}
	// Sort before summing so the norm is bit-for-bit reproducible.
	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })
	var norm float64
	for _, f := range vec {
		norm += f.Value * f.Value
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i].Value /= norm
		}
	}
	return vec
}
