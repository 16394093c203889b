// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance trains and applies the sentence relevance classifier:
// a bag-of-ngrams (unigram+bigram) TF-IDF vectorizer feeding a logistic
// regression fitted by gradient descent. Training splits the labeled
// sentences 80/20 (stratified, fixed seed) and reports validation
// accuracy and F1.
package relevance

import (
	"errors"
	"math"
	"math/rand"
	"regexp"
	"strings"
)

// ErrTrainingDataInsufficient is returned when fewer than MinExamples
// labeled sentences are available. It is raised at validation time,
// before any model is fit.
var ErrTrainingDataInsufficient = errors.New("not enough labeled sentences to train")

// MinExamples is the minimum labeled-sentence count required to train.
const MinExamples = 4

// splitSeed fixes the train/validation shuffle for reproducibility.
const splitSeed = 42

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// ngrams lowercases text and emits unigrams plus space-joined bigrams.
func ngrams(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, 2*len(words))
	out = append(out, words...)
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}

// Vectorizer maps text to L2-normalized TF-IDF feature vectors over the
// ngram vocabulary seen at fit time.
type Vectorizer struct {
	Vocab map[string]int
	IDF   []float64
}

// Fit builds the vocabulary and IDF table from the training documents.
func (v *Vectorizer) Fit(docs []string) {
	v.Vocab = make(map[string]int)
	docFreq := []int{}
	for _, doc := range docs {
		seen := map[int]bool{}
		for _, g := range ngrams(doc) {
			id, ok := v.Vocab[g]
			if !ok {
				id = len(v.Vocab)
				v.Vocab[g] = id
				docFreq = append(docFreq, 0)
			}
			if !seen[id] {
				docFreq[id]++
				seen[id] = true
			}
		}
	}
	n := float64(len(docs))
	v.IDF = make([]float64, len(docFreq))
	for id, df := range docFreq {
		// Smoothed IDF, as in the usual TF-IDF formulation.
		v.IDF[id] = math.Log((1+n)/(1+float64(df))) + 1
	}
}

// Transform maps one document into a sparse TF-IDF vector. Ngrams
// outside the fitted vocabulary are ignored.
func (v *Vectorizer) Transform(doc string) map[int]float64 {
	vec := make(map[int]float64)
	for _, g := range ngrams(doc) {
		if id, ok := v.Vocab[g]; ok {
			vec[id] += v.IDF[id]
		}
	}
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for id := range vec {
			vec[id] /= norm
		}
	}
	return vec
}

// Classifier is a binary logistic regression over vectorized sentences.
type Classifier struct {
	Weights []float64
	Bias    float64
}

// Fit runs full-batch gradient descent for steps iterations.
func (c *Classifier) Fit(xs []map[int]float64, ys []int, dim, steps int, lr float64) {
	c.Weights = make([]float64, dim)
	n := float64(len(xs))
	if n == 0 {
		return
	}
	for step := 0; step < steps; step++ {
		grad := make(map[int]float64)
		var gradBias float64
		for i, x := range xs {
			d := sigmoid(c.score(x)) - float64(ys[i])
			for id, w := range x {
				grad[id] += d * w
			}
			gradBias += d
		}
		for id, g := range grad {
			c.Weights[id] -= lr * g / n
		}
		c.Bias -= lr * gradBias / n
	}
}

func (c *Classifier) score(x map[int]float64) float64 {
	z := c.Bias
	for id, w := range x {
		if id < len(c.Weights) {
			z += c.Weights[id] * w
		}
	}
	return z
}

// ProbKeep returns the keep probability for one vectorized sentence.
func (c *Classifier) ProbKeep(x map[int]float64) float64 {
	return sigmoid(c.score(x))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Validation holds held-out metrics from one training run.
type Validation struct {
	Accuracy float64
	F1       float64
}

// Model is the fitted vectorizer+classifier pair, serialized together as
// one artifact.
type Model struct {
	Vectorizer Vectorizer
	Classifier Classifier
}

// Train fits a relevance model on texts/labels (1 = KEEP, 0 = REMOVE).
// It returns ErrTrainingDataInsufficient when fewer than MinExamples
// examples are supplied.
func Train(texts []string, labels []int, steps int, lr float64) (*Model, Validation, error) {
	if len(texts) < MinExamples {
		return nil, Validation{}, ErrTrainingDataInsufficient
	}
	if steps <= 0 {
		steps = 1
	}
	if lr <= 0 {
		lr = 0.001
	}

	trainIdx, valIdx := stratifiedSplit(labels)

	m := &Model{}
	trainDocs := make([]string, len(trainIdx))
	for i, idx := range trainIdx {
		trainDocs[i] = texts[idx]
	}
	m.Vectorizer.Fit(trainDocs)

	xs := make([]map[int]float64, len(trainIdx))
	ys := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		xs[i] = m.Vectorizer.Transform(texts[idx])
		ys[i] = labels[idx]
	}
	m.Classifier.Fit(xs, ys, len(m.Vectorizer.Vocab), steps, lr)

	return m, m.validate(texts, labels, valIdx), nil
}

func (m *Model) validate(texts []string, labels []int, valIdx []int) Validation {
	if len(valIdx) == 0 {
		return Validation{}
	}
	var tp, fp, fn, correct int
	for _, idx := range valIdx {
		pred := 0
		if m.Classifier.ProbKeep(m.Vectorizer.Transform(texts[idx])) >= 0.5 {
			pred = 1
		}
		if pred == labels[idx] {
			correct++
		}
		switch {
		case pred == 1 && labels[idx] == 1:
			tp++
		case pred == 1 && labels[idx] == 0:
			fp++
		case pred == 0 && labels[idx] == 1:
			fn++
		}
	}
	val := Validation{Accuracy: float64(correct) / float64(len(valIdx))}
	if denom := 2*tp + fp + fn; denom > 0 {
		val.F1 = float64(2*tp) / float64(denom)
	}
	return val
}

// stratifiedSplit shuffles each class with a fixed seed and holds out
// roughly 20% of it (at least one example for classes of two or more).
func stratifiedSplit(labels []int) (trainIdx, valIdx []int) {
	rng := rand.New(rand.NewSource(splitSeed))
	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	for _, class := range []int{0, 1} {
		idxs := byClass[class]
		rng.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })
		nVal := len(idxs) / 5
		if nVal == 0 && len(idxs) > 1 {
			nVal = 1
		}
		valIdx = append(valIdx, idxs[:nVal]...)
		trainIdx = append(trainIdx, idxs[nVal:]...)
	}
	return trainIdx, valIdx
}

// Probabilities scores each sentence, preserving input order.
func (m *Model) Probabilities(texts []string) []float64 {
	probs := make([]float64, len(texts))
	for i, t := range texts {
		probs[i] = m.Classifier.ProbKeep(m.Vectorizer.Transform(t))
	}
	return probs
}
