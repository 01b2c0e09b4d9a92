// Package diagnosis turns a symptom selection into a disease report. The
// Engine holds every table and the classifier, is built once at startup and
// is never modified afterwards, so handlers may share it freely.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Skufu/symptom-checker/internal/dataset"
	"github.com/Skufu/symptom-checker/internal/model"
	"github.com/Skufu/symptom-checker/internal/reference"
	"github.com/Skufu/symptom-checker/internal/symptoms"
	"github.com/Skufu/symptom-checker/internal/validator"
)

// ErrorLabel is the disease reported when the selection cannot be diagnosed.
const ErrorLabel = "Error"

var (
	// ErrNoSymptoms means nothing was selected.
	ErrNoSymptoms = errors.New("no symptoms selected")
	// ErrNoKnownSymptoms means none of the selected names are in the vocabulary.
	ErrNoKnownSymptoms = errors.New("no recognized symptoms")
)

// Guidance shown in place of a description when diagnosis is not possible.
const (
	MsgNoSymptoms      = "Please select at least one symptom."
	MsgNoKnownSymptoms = "None of the selected symptoms were recognized. Please select valid symptoms."
)

// TrainingFile is the default training table name inside the data directory.
const TrainingFile = "Training.csv"

// Classifier predicts a disease with a probability for every label it knows.
type Classifier interface {
	Predict(vec symptoms.Vector) (string, model.Distribution)
}

// Report is the payload rendered for the user.
type Report struct {
	Disease     string   `json:"disease"`
	Description string   `json:"description"`
	Precautions []string `json:"precautions"`
	Medications []string `json:"medications"`
	Specialist  string   `json:"specialist"`
}

// Trace records how a report was produced. It is for logs and headers only.
// Probability is the classifier's probability for the reported disease.
type Trace struct {
	Matched       []string
	RawPrediction string
	Probability   float64
	Accepted      bool
	Outcome       validator.Outcome
	Err           error
}

// Paths locates the startup files.
type Paths struct {
	DataDir     string
	ModelPath   string
	LabelColumn string
}

// Engine is the immutable application context.
type Engine struct {
	vocab      *symptoms.Vocabulary
	cases      []dataset.Case
	classifier Classifier
	refs       *reference.Store
}

// Load reads the training table, model and reference tables, failing on the
// first missing or malformed file.
func Load(p Paths, logger *logrus.Logger) (*Engine, error) {
	modelPath := p.ModelPath
	if modelPath == "" {
		modelPath = filepath.Join(p.DataDir, "model.json")
	}

	training, err := dataset.LoadTraining(filepath.Join(p.DataDir, TrainingFile), p.LabelColumn)
	if err != nil {
		return nil, err
	}
	tree, err := model.LoadFile(modelPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w (fit it first with: go run ./cmd/train --data %s)", modelPath, err, p.DataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", modelPath, err)
	}
	if err := tree.CheckFeatures(training.Vocabulary.Names()); err != nil {
		return nil, fmt.Errorf("%s: %w", modelPath, err)
	}
	refs, err := reference.LoadStore(p.DataDir)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"symptoms": training.Vocabulary.Len(),
		"cases":    len(training.Cases),
		"diseases": len(tree.Labels),
		"depth":    tree.Depth(),
		"tables":   refs.Diseases(),
	}).Info("diagnosis data loaded")

	return New(training, tree, refs), nil
}

// New assembles an Engine from already loaded parts.
func New(training *dataset.Training, classifier Classifier, refs *reference.Store) *Engine {
	return &Engine{
		vocab:      training.Vocabulary,
		cases:      training.Cases,
		classifier: classifier,
		refs:       refs,
	}
}

// Symptoms lists the selectable symptom names in vocabulary order.
func (e *Engine) Symptoms() []string {
	return e.vocab.Names()
}

// Ping reports readiness; an Engine only exists once everything is loaded.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.classifier == nil {
		return errors.New("engine not loaded")
	}
	return ctx.Err()
}

// Diagnose encodes the selection, classifies it, validates the prediction
// and looks up the reference data. Empty or unrecognised selections produce
// the error report without calling the classifier.
func (e *Engine) Diagnose(selected []string) (Report, Trace) {
	if len(selected) == 0 {
		return ErrorReport(MsgNoSymptoms), Trace{Matched: []string{}, Err: ErrNoSymptoms}
	}

	vec, matched := e.vocab.Encode(selected)
	if vec.Count() == 0 {
		return ErrorReport(MsgNoKnownSymptoms), Trace{Matched: matched, Err: ErrNoKnownSymptoms}
	}

	raw, dist := e.classifier.Predict(vec)
	result := validator.Validate(vec, raw, dist, e.cases)

	rec := e.refs.Lookup(result.Label)
	report := Report{
		Disease:     result.Label,
		Description: rec.Description,
		Precautions: rec.Precautions,
		Medications: rec.Medications,
		Specialist:  rec.Specialist,
	}
	return report, Trace{
		Matched:       matched,
		RawPrediction: raw,
		Probability:   dist.Of(result.Label),
		Accepted:      result.Accepted,
		Outcome:       result.Outcome,
	}
}

// ErrorReport builds the fixed payload for a selection that cannot be diagnosed.
func ErrorReport(message string) Report {
	return Report{
		Disease:     ErrorLabel,
		Description: message,
		Precautions: []string{},
		Medications: []string{},
		Specialist:  reference.DefaultSpecialist,
	}
}
