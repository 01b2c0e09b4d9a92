package reference

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/Skufu/symptom-checker/internal/dataset"
)

// Placeholders returned when a table has no row for a disease.
const (
	NoDescription     = "No description found."
	NoPrecautions     = "No precautions found."
	NoMedications     = "No medications found."
	DefaultSpecialist = "General Physician"
)

// Default file names inside the data directory.
const (
	DescriptionFile = "symptom_Description.csv"
	PrecautionFile  = "symptom_precaution.csv"
	MedicationFile  = "medications.csv"
	SpecialistFile  = "specialists.csv"
)

// maxListColumns caps precaution and medication columns per row.
const maxListColumns = 4

// Record is everything known about one disease.
type Record struct {
	Description string
	Precautions []string
	Medications []string
	Specialist  string
}

// Store holds the four per-disease tables keyed by disease label. It is read
// only after construction.
type Store struct {
	descriptions map[string]string
	precautions  map[string][]string
	medications  map[string][]string
	specialists  map[string]string
}

// Tables groups the parsed reference tables handed to NewStore.
type Tables struct {
	Descriptions *dataset.Table
	Precautions  *dataset.Table
	Medications  *dataset.Table
	Specialists  *dataset.Table
}

// LoadStore reads the four reference tables from dir using the default file names.
func LoadStore(dir string) (*Store, error) {
	var tables Tables
	for _, f := range []struct {
		name string
		dst  **dataset.Table
	}{
		{DescriptionFile, &tables.Descriptions},
		{PrecautionFile, &tables.Precautions},
		{MedicationFile, &tables.Medications},
		{SpecialistFile, &tables.Specialists},
	} {
		table, err := dataset.ReadTableFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, err
		}
		*f.dst = table
	}
	return NewStore(tables)
}

// NewStore indexes parsed tables. Every table's first column is the disease
// key; when a disease appears more than once the first row wins. For the
// description and specialist tables that is the first row with a non-blank
// value.
func NewStore(t Tables) (*Store, error) {
	descriptions, err := indexSingle(t.Descriptions, "Description")
	if err != nil {
		return nil, fmt.Errorf("description table: %w", err)
	}
	specialists, err := indexSingle(t.Specialists, "Specialist")
	if err != nil {
		return nil, fmt.Errorf("specialist table: %w", err)
	}
	precautions, err := indexList(t.Precautions)
	if err != nil {
		return nil, fmt.Errorf("precaution table: %w", err)
	}
	medications, err := indexList(t.Medications)
	if err != nil {
		return nil, fmt.Errorf("medication table: %w", err)
	}

	return &Store{
		descriptions: descriptions,
		precautions:  precautions,
		medications:  medications,
		specialists:  specialists,
	}, nil
}

// Lookup resolves each field independently, substituting placeholders for
// tables that have no row for disease.
func (s *Store) Lookup(disease string) Record {
	return Record{
		Description: lookupOr(s.descriptions, disease, NoDescription),
		Precautions: slices.Clone(lookupOr(s.precautions, disease, []string{NoPrecautions})),
		Medications: slices.Clone(lookupOr(s.medications, disease, []string{NoMedications})),
		Specialist:  lookupOr(s.specialists, disease, DefaultSpecialist),
	}
}

// Diseases reports how many distinct diseases each table covers.
func (s *Store) Diseases() map[string]int {
	return map[string]int{
		"descriptions": len(s.descriptions),
		"precautions":  len(s.precautions),
		"medications":  len(s.medications),
		"specialists":  len(s.specialists),
	}
}

func lookupOr[T any](table map[string]T, disease string, fallback T) T {
	if v, ok := table[disease]; ok {
		return v
	}
	return fallback
}

func indexSingle(table *dataset.Table, column string) (map[string]string, error) {
	if table == nil {
		return nil, fmt.Errorf("table missing")
	}
	col, ok := table.Column(column)
	if !ok {
		if len(table.Header) < 2 {
			return nil, fmt.Errorf("no %q column", column)
		}
		col = 1
	}

	out := make(map[string]string, len(table.Rows))
	for _, row := range table.Rows {
		key := row[0]
		if key == "" {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		// Blank cells leave the disease unindexed so the placeholder applies.
		if col < len(row) && row[col] != "" && row[col] != "nan" {
			out[key] = row[col]
		}
	}
	return out, nil
}

func indexList(table *dataset.Table) (map[string][]string, error) {
	if table == nil {
		return nil, fmt.Errorf("table missing")
	}
	if len(table.Header) < 2 {
		return nil, fmt.Errorf("expected a disease column followed by at least one value column")
	}
	last := len(table.Header)
	if last > maxListColumns+1 {
		last = maxListColumns + 1
	}

	out := make(map[string][]string, len(table.Rows))
	for _, row := range table.Rows {
		key := row[0]
		if key == "" {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		values := []string{}
		for i := 1; i < last && i < len(row); i++ {
			if v := row[i]; v != "" && v != "nan" {
				values = append(values, v)
			}
		}
		out[key] = values
	}
	return out, nil
}
