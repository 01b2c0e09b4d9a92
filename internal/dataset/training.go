package dataset

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Skufu/symptom-checker/internal/symptoms"
)

// DefaultLabelColumn is the training table column holding the disease label.
const DefaultLabelColumn = "prognosis"

var (
	// ErrMissingLabelColumn is returned when the training header lacks the label column.
	ErrMissingLabelColumn = errors.New("training table has no label column")
	// ErrNoSymptomColumns is returned when the training header has only the label column.
	ErrNoSymptomColumns = errors.New("training table has no symptom columns")
)

// Case is one labelled row of the training table.
type Case struct {
	Label    string
	Symptoms symptoms.Vector
}

// Training is the loaded training table: the symptom vocabulary taken from
// its header and every row as a Case, in file order.
type Training struct {
	Vocabulary *symptoms.Vocabulary
	Cases      []Case
}

// LoadTraining reads the training CSV at path.
func LoadTraining(path, labelColumn string) (*Training, error) {
	table, err := ReadTableFile(path)
	if err != nil {
		return nil, err
	}
	training, err := buildTraining(table, labelColumn)
	if err != nil {
		return nil, fmt.Errorf("load training %s: %w", path, err)
	}
	return training, nil
}

// ReadTraining parses a training table from r.
func ReadTraining(r io.Reader, labelColumn string) (*Training, error) {
	table, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return buildTraining(table, labelColumn)
}

func buildTraining(table *Table, labelColumn string) (*Training, error) {
	if labelColumn == "" {
		labelColumn = DefaultLabelColumn
	}
	labelIdx, ok := table.Column(labelColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingLabelColumn, labelColumn)
	}

	// Exported spreadsheets often carry a trailing unnamed column; blank
	// headers are not symptoms.
	var names []string
	var columns []int
	for i, h := range table.Header {
		if i == labelIdx || h == "" {
			continue
		}
		names = append(names, h)
		columns = append(columns, i)
	}
	if len(names) == 0 {
		return nil, ErrNoSymptomColumns
	}

	vocab, err := symptoms.NewVocabulary(names)
	if err != nil {
		return nil, fmt.Errorf("build vocabulary: %w", err)
	}

	cases := make([]Case, 0, len(table.Rows))
	for r, row := range table.Rows {
		line := r + 2
		label := cell(row, labelIdx)
		if label == "" {
			return nil, fmt.Errorf("row %d: empty label", line)
		}
		vec := make(symptoms.Vector, len(columns))
		for j, col := range columns {
			switch v := cell(row, col); v {
			case "1", "1.0":
				vec[j] = 1
			case "0", "0.0", "":
				vec[j] = 0
			default:
				return nil, fmt.Errorf("row %d, column %q: not a binary value: %q", line, names[j], v)
			}
		}
		cases = append(cases, Case{Label: label, Symptoms: vec})
	}

	return &Training{Vocabulary: vocab, Cases: cases}, nil
}

// Labels returns the distinct labels in alphabetical order.
func (t *Training) Labels() []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, c := range t.Cases {
		if _, ok := seen[c.Label]; ok {
			continue
		}
		seen[c.Label] = struct{}{}
		labels = append(labels, c.Label)
	}
	sort.Strings(labels)
	return labels
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
