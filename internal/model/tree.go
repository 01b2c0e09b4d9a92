// Package model implements the disease classifier: a CART decision tree over
// binary symptom features, fitted offline and loaded from JSON at startup.
package model

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/Skufu/symptom-checker/internal/dataset"
	"github.com/Skufu/symptom-checker/internal/symptoms"
)

// DefaultSeed matches the seed the published model was trained with.
const DefaultSeed = 42

const leaf = -1

var (
	// ErrNoCases is returned when fitting on an empty training set.
	ErrNoCases = errors.New("no training cases")
	// ErrFeatureMismatch is returned when a model was trained on a different vocabulary.
	ErrFeatureMismatch = errors.New("model features do not match vocabulary")
)

// Probability is one label's share of the distribution.
type Probability struct {
	Label string  `json:"label"`
	Value float64 `json:"probability"`
}

// Distribution covers every trained label, in the tree's label order.
type Distribution []Probability

// Of returns the probability of label, or 0 when absent.
func (d Distribution) Of(label string) float64 {
	for _, p := range d {
		if p.Label == label {
			return p.Value
		}
	}
	return 0
}

// Options controls fitting.
type Options struct {
	Seed     int64
	MaxDepth int // 0 means unlimited
}

// Node is a split or a leaf. Absent features follow Left, present ones Right.
type Node struct {
	Feature int   `json:"feature"`
	Left    int   `json:"left,omitempty"`
	Right   int   `json:"right,omitempty"`
	Counts  []int `json:"counts"`
}

// Tree is a fitted classifier. Labels are sorted alphabetically; Nodes[0] is the root.
type Tree struct {
	Labels   []string `json:"labels"`
	Features []string `json:"features"`
	Seed     int64    `json:"seed"`
	Nodes    []Node   `json:"nodes"`
}

// Fit grows a tree over cases using gini impurity. At every node the
// features are tried in a seeded random order and the first best split wins,
// so a given seed always yields the same tree.
func Fit(features []string, cases []dataset.Case, opts Options) (*Tree, error) {
	if len(cases) == 0 {
		return nil, ErrNoCases
	}
	for i, c := range cases {
		if len(c.Symptoms) != len(features) {
			return nil, fmt.Errorf("case %d has %d symptoms, want %d", i, len(c.Symptoms), len(features))
		}
	}

	labelIdx := make(map[string]int)
	for _, c := range cases {
		labelIdx[c.Label] = 0
	}
	labels := make([]string, 0, len(labelIdx))
	for l := range labelIdx {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for i, l := range labels {
		labelIdx[l] = i
	}

	targets := make([]int, len(cases))
	for i, c := range cases {
		targets[i] = labelIdx[c.Label]
	}

	f := &fitter{
		cases:   cases,
		targets: targets,
		classes: len(labels),
		rng:     rand.New(rand.NewSource(opts.Seed)),
		opts:    opts,
		tree: &Tree{
			Labels:   labels,
			Features: append([]string(nil), features...),
			Seed:     opts.Seed,
		},
	}

	rows := make([]int, len(cases))
	for i := range rows {
		rows[i] = i
	}
	f.grow(rows, 0)
	return f.tree, nil
}

type fitter struct {
	cases   []dataset.Case
	targets []int
	classes int
	rng     *rand.Rand
	opts    Options
	tree    *Tree
}

func (f *fitter) grow(rows []int, depth int) int {
	counts := f.count(rows)
	idx := len(f.tree.Nodes)
	f.tree.Nodes = append(f.tree.Nodes, Node{Feature: leaf, Counts: counts})

	if gini(counts, len(rows)) == 0 || (f.opts.MaxDepth > 0 && depth >= f.opts.MaxDepth) {
		return idx
	}

	feature, ok := f.bestSplit(rows)
	if !ok {
		return idx
	}

	var absent, present []int
	for _, r := range rows {
		if f.cases[r].Symptoms[feature] == 0 {
			absent = append(absent, r)
		} else {
			present = append(present, r)
		}
	}

	left := f.grow(absent, depth+1)
	right := f.grow(present, depth+1)
	f.tree.Nodes[idx].Feature = feature
	f.tree.Nodes[idx].Left = left
	f.tree.Nodes[idx].Right = right
	return idx
}

func (f *fitter) bestSplit(rows []int) (int, bool) {
	best, found := 0, false
	bestImpurity := 0.0

	left := make([]int, f.classes)
	right := make([]int, f.classes)
	for _, feature := range f.rng.Perm(len(f.tree.Features)) {
		for i := range left {
			left[i], right[i] = 0, 0
		}
		nl, nr := 0, 0
		for _, r := range rows {
			if f.cases[r].Symptoms[feature] == 0 {
				left[f.targets[r]]++
				nl++
			} else {
				right[f.targets[r]]++
				nr++
			}
		}
		if nl == 0 || nr == 0 {
			continue
		}
		impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(len(rows))
		if !found || impurity < bestImpurity-1e-12 {
			best, bestImpurity, found = feature, impurity, true
		}
	}
	return best, found
}

func (f *fitter) count(rows []int) []int {
	counts := make([]int, f.classes)
	for _, r := range rows {
		counts[f.targets[r]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

// Predict walks vec down the tree and returns the most probable label with
// the leaf's full distribution. Equal probabilities resolve to the
// alphabetically first label. Positions beyond len(vec) count as absent.
func (t *Tree) Predict(vec symptoms.Vector) (string, Distribution) {
	n := t.Nodes[0]
	for n.Feature != leaf {
		if n.Feature < len(vec) && vec[n.Feature] != 0 {
			n = t.Nodes[n.Right]
		} else {
			n = t.Nodes[n.Left]
		}
	}

	total := 0
	for _, c := range n.Counts {
		total += c
	}
	dist := make(Distribution, len(t.Labels))
	top := 0
	for i, label := range t.Labels {
		p := 0.0
		if total > 0 {
			p = float64(n.Counts[i]) / float64(total)
		}
		dist[i] = Probability{Label: label, Value: p}
		if p > dist[top].Value {
			top = i
		}
	}
	return t.Labels[top], dist
}

// Accuracy returns the share of cases the tree labels correctly.
func (t *Tree) Accuracy(cases []dataset.Case) float64 {
	if len(cases) == 0 {
		return 0
	}
	hits := 0
	for _, c := range cases {
		if label, _ := t.Predict(c.Symptoms); label == c.Label {
			hits++
		}
	}
	return float64(hits) / float64(len(cases))
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return walk(0)
}

// CheckFeatures confirms the tree was trained on exactly these symptom names.
func (t *Tree) CheckFeatures(names []string) error {
	if len(names) != len(t.Features) {
		return fmt.Errorf("%w: model has %d features, vocabulary has %d", ErrFeatureMismatch, len(t.Features), len(names))
	}
	for i, name := range names {
		if t.Features[i] != name {
			return fmt.Errorf("%w: position %d is %q in model, %q in vocabulary", ErrFeatureMismatch, i, t.Features[i], name)
		}
	}
	return nil
}
