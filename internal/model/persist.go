package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Save writes the tree as JSON.
func (t *Tree) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(t)
}

// SaveFile writes the tree to path, replacing any existing file.
func (t *Tree) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := t.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return f.Close()
}

// Load decodes and checks a tree written by Save.
func Load(r io.Reader) (*Tree, error) {
	var t Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return &t, nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (t *Tree) validate() error {
	if len(t.Labels) == 0 {
		return fmt.Errorf("no labels")
	}
	if len(t.Features) == 0 {
		return fmt.Errorf("no features")
	}
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, n := range t.Nodes {
		if len(n.Counts) != len(t.Labels) {
			return fmt.Errorf("node %d: %d counts for %d labels", i, len(n.Counts), len(t.Labels))
		}
		if n.Feature == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= len(t.Features) {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// Children are always stored after their parent, which also rules out cycles.
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: bad child index", i)
		}
	}
	return nil
}
