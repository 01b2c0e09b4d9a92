// Package validator checks a classifier's top prediction against the
// training cases and, when the prediction is not backed by any case with the
// same symptoms, looks for a better supported disease.
package validator

import (
	"sort"

	"github.com/Skufu/symptom-checker/internal/dataset"
	"github.com/Skufu/symptom-checker/internal/model"
	"github.com/Skufu/symptom-checker/internal/symptoms"
)

// Outcome says how the final label was reached.
type Outcome string

const (
	// Confirmed: a training case with the raw label has exactly the selected symptoms.
	Confirmed Outcome = "confirmed"
	// Corrected: another label was chosen by the fallback search.
	Corrected Outcome = "corrected"
	// Fallback: only the raw label's own cases overlap the selection, so it is
	// kept without an exact match.
	Fallback Outcome = "fallback"
	// Unsupported: no case of any label overlaps the selection.
	Unsupported Outcome = "unsupported"
)

// Result is the validated prediction.
type Result struct {
	Label    string
	Accepted bool
	Outcome  Outcome
}

// Validate confirms raw when one of its training cases equals vec exactly.
// Otherwise the remaining labels are tried in order of descending
// probability, ties alphabetical, and the first label owning a case that
// shares a selected symptom with vec wins. The raw label is not a candidate in
// that search, so an overlapping raw label loses to any other overlapping
// label however small its probability. Only when no other label overlaps is
// raw kept, as Fallback if one of its own cases overlaps and as Unsupported
// otherwise. Accepted is false in every case but Confirmed.
func Validate(vec symptoms.Vector, raw string, dist model.Distribution, cases []dataset.Case) Result {
	byLabel := make(map[string][]symptoms.Vector)
	for _, c := range cases {
		byLabel[c.Label] = append(byLabel[c.Label], c.Symptoms)
	}

	for _, s := range byLabel[raw] {
		if symptoms.Equal(s, vec) {
			return Result{Label: raw, Accepted: true, Outcome: Confirmed}
		}
	}

	for _, candidate := range Rank(dist) {
		if candidate.Label == raw {
			continue
		}
		for _, s := range byLabel[candidate.Label] {
			if symptoms.Overlaps(s, vec) {
				return Result{Label: candidate.Label, Outcome: Corrected}
			}
		}
	}

	for _, s := range byLabel[raw] {
		if symptoms.Overlaps(s, vec) {
			return Result{Label: raw, Outcome: Fallback}
		}
	}

	return Result{Label: raw, Outcome: Unsupported}
}

// Rank returns a copy of dist sorted by probability descending, then label.
func Rank(dist model.Distribution) model.Distribution {
	ranked := make(model.Distribution, len(dist))
	copy(ranked, dist)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Label < ranked[j].Label
	})
	return ranked
}
