// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ner trains and applies the entity recognizer: an
// averaged-perceptron sequence labeler over BIO tags, emitting labeled
// character spans with byte offsets into the input text.
//
// Training is best-effort: documents with no gold spans carry no signal
// and are skipped, and a run with zero usable documents leaves the
// recognizer untrained without error. Predicted spans carry a constant
// placeholder confidence rather than a calibrated probability; this is a
// known simplification.
package ner

import (
	"sort"
	"strings"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// MaxIterations caps training passes to bound training latency.
const MaxIterations = 30

// SpanConfidence is the fixed confidence assigned to every predicted
// span.
const SpanConfidence = 0.7

const outsideTag = "O"

// Span is a gold entity span over a document.
type Span struct {
	StartChar int
	EndChar   int
	Label     types.EntityLabel
}

// Document is one training document: raw text plus its gold spans.
type Document struct {
	Text  string
	Spans []Span
}

// Recognizer is the fitted sequence labeler. Weights map feature ->
// tag -> weight. An untrained recognizer predicts nothing.
type Recognizer struct {
	Trained bool
	Tags    []string
	Weights map[string]map[string]float64
}

// Train fits a recognizer on docs for min(iters, MaxIterations) passes.
// Documents without spans are skipped; zero usable documents returns an
// untrained recognizer and no error.
func Train(docs []Document, iters int) *Recognizer {
	if iters > MaxIterations {
		iters = MaxIterations
	}
	if iters < 1 {
		iters = 1
	}

	type example struct {
		toks []token
		gold []string
	}
	var examples []example
	tagSet := map[string]bool{outsideTag: true}
	for _, doc := range docs {
		if len(doc.Spans) == 0 {
			continue
		}
		toks := tokenize(doc.Text)
		gold := encodeBIO(toks, doc.Spans)
		for _, tag := range gold {
			tagSet[tag] = true
		}
		examples = append(examples, example{toks, gold})
	}
	if len(examples) == 0 {
		return &Recognizer{}
	}

	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	tr := newTrainer(tags)
	for pass := 0; pass < iters; pass++ {
		for _, ex := range examples {
			prev := outsideTag
			for i := range ex.toks {
				feats := features(ex.toks, i, prev)
				guess := tr.predict(feats)
				tr.update(ex.gold[i], guess, feats)
				prev = guess
			}
		}
	}

	return &Recognizer{
		Trained: true,
		Tags:    tags,
		Weights: tr.averaged(),
	}
}

// Predict labels text and decodes BIO runs into entity spans, in
// left-to-right order.
func (r *Recognizer) Predict(text string) []types.EntitySpan {
	if r == nil || !r.Trained {
		return nil
	}
	toks := tokenize(text)
	if len(toks) == 0 {
		return nil
	}

	tags := make([]string, len(toks))
	prev := outsideTag
	for i := range toks {
		tags[i] = argmax(r.Weights, r.Tags, features(toks, i, prev))
		prev = tags[i]
	}

	var spans []types.EntitySpan
	for i := 0; i < len(toks); {
		label, ok := tagLabel(tags[i])
		if !ok {
			i++
			continue
		}
		start := toks[i].start
		end := toks[i].end
		j := i + 1
		for j < len(toks) {
			next, nok := tagLabel(tags[j])
			if !nok || next != label || strings.HasPrefix(tags[j], "B-") {
				break
			}
			end = toks[j].end
			j++
		}
		spans = append(spans, types.EntitySpan{
			Label:     types.EntityLabel(label),
			Text:      text[start:end],
			StartChar: start,
			EndChar:   end,
			Prob:      SpanConfidence,
		})
		i = j
	}
	return spans
}

// Evaluate computes per-label precision/recall/F1 by exact span matching
// of predictions against gold on the given documents. When these are the
// training documents the figures measure training fit, not validation.
func (r *Recognizer) Evaluate(docs []Document) map[string]types.LabelMetrics {
	type counts struct{ tp, fp, fn int }
	byLabel := map[string]*counts{}
	get := func(label string) *counts {
		c, ok := byLabel[label]
		if !ok {
			c = &counts{}
			byLabel[label] = c
		}
		return c
	}

	for _, doc := range docs {
		if len(doc.Spans) == 0 {
			continue
		}
		gold := map[Span]bool{}
		for _, s := range doc.Spans {
			gold[s] = true
		}
		for _, p := range r.Predict(doc.Text) {
			key := Span{p.StartChar, p.EndChar, p.Label}
			if gold[key] {
				get(string(p.Label)).tp++
				delete(gold, key)
			} else {
				get(string(p.Label)).fp++
			}
		}
		for s := range gold {
			get(string(s.Label)).fn++
		}
	}

	out := make(map[string]types.LabelMetrics, len(byLabel))
	for label, c := range byLabel {
		var m types.LabelMetrics
		if c.tp+c.fp > 0 {
			m.Precision = float64(c.tp) / float64(c.tp+c.fp)
		}
		if c.tp+c.fn > 0 {
			m.Recall = float64(c.tp) / float64(c.tp+c.fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		out[label] = m
	}
	return out
}

// tagLabel strips the BIO prefix, reporting false for the outside tag.
func tagLabel(tag string) (string, bool) {
	if tag == outsideTag {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(tag, "B-"), "I-"), true
}

// encodeBIO assigns a BIO tag to every token: B- on the first token
// inside a gold span, I- on the rest, O elsewhere.
func encodeBIO(toks []token, spans []Span) []string {
	tags := make([]string, len(toks))
	for i := range tags {
		tags[i] = outsideTag
	}
	for _, s := range spans {
		first := true
		for i, t := range toks {
			if t.start >= s.StartChar && t.end <= s.EndChar {
				if first {
					tags[i] = "B-" + string(s.Label)
					first = false
				} else {
					tags[i] = "I-" + string(s.Label)
				}
			}
		}
	}
	return tags
}

// argmax scores each tag over feats. Ties resolve deterministically:
// the outside tag wins an exact tie, otherwise the first
// strictly-higher-scoring tag in sorted order.
func argmax(weights map[string]map[string]float64, tags []string, feats []string) string {
	scores := make(map[string]float64, len(tags))
	for _, f := range feats {
		for tag, w := range weights[f] {
			scores[tag] += w
		}
	}
	best := outsideTag
	bestScore := scores[outsideTag]
	for _, tag := range tags {
		if scores[tag] > bestScore {
			best = tag
			bestScore = scores[tag]
		}
	}
	return best
}
