// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ner

// trainer accumulates averaged-perceptron weights. Averaging over all
// update steps damps the oscillation of the plain perceptron on data it
// cannot fit exactly.
type trainer struct {
	tags    []string
	weights map[string]map[string]float64
	totals  map[string]map[string]float64
	stamps  map[string]map[string]int
	steps   int
}

func newTrainer(tags []string) *trainer {
	return &trainer{
		tags:    tags,
		weights: map[string]map[string]float64{},
		totals:  map[string]map[string]float64{},
		stamps:  map[string]map[string]int{},
	}
}

func (t *trainer) predict(feats []string) string {
	return argmax(t.weights, t.tags, feats)
}

// update applies one perceptron step: reward the gold tag, penalize the
// guessed tag, for every active feature. Counts the step even when the
// guess was correct so averaging weighs stable weights properly.
func (t *trainer) update(truth, guess string, feats []string) {
	t.steps++
	if truth == guess {
		return
	}
	for _, f := range feats {
		t.adjust(f, truth, 1)
		t.adjust(f, guess, -1)
	}
}

func (t *trainer) adjust(feat, tag string, delta float64) {
	if t.weights[feat] == nil {
		t.weights[feat] = map[string]float64{}
		t.totals[feat] = map[string]float64{}
		t.stamps[feat] = map[string]int{}
	}
	// Fold in the weight's contribution since it last changed.
	t.totals[feat][tag] += float64(t.steps-t.stamps[feat][tag]) * t.weights[feat][tag]
	t.stamps[feat][tag] = t.steps
	t.weights[feat][tag] += delta
}

// averaged finalizes the weight table as the mean weight over all steps.
func (t *trainer) averaged() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(t.weights))
	if t.steps == 0 {
		return out
	}
	for feat, byTag := range t.weights {
		avg := map[string]float64{}
		for tag, w := range byTag {
			total := t.totals[feat][tag] + float64(t.steps-t.stamps[feat][tag])*w
			if total != 0 {
				avg[tag] = total / float64(t.steps)
			}
		}
		if len(avg) > 0 {
			out[feat] = avg
		}
	}
	return out
}
