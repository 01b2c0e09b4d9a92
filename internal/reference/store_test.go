package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/symptom-checker/internal/dataset"
)

var fixtureFiles = map[string]string{
	DescriptionFile: "Disease,Description\nFlu,A viral infection of the airways.\nFlu,Second row is ignored.\nMalaria,Mosquito-borne parasite.\n",
	PrecautionFile:  "Disease,Precaution_1,Precaution_2,Precaution_3,Precaution_4\nFlu,rest,drink fluids,,\nMalaria,use nets,,,\n",
	MedicationFile:  "Disease,Medicine_1,Medicine_2,Medicine_3,Medicine_4,Medicine_5\nFlu,Paracetamol,,Oseltamivir,,Ignored\n",
	SpecialistFile:  "Disease,Specialist\nFlu,General Physician\nMalaria,Infectious Disease Specialist\n",
}

func writeFixtures(t *testing.T, skip string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range fixtureFiles {
		if name == skip {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadStoreLookup(t *testing.T) {
	store, err := LoadStore(writeFixtures(t, ""))
	require.NoError(t, err)

	rec := store.Lookup("Flu")
	assert.Equal(t, "A viral infection of the airways.", rec.Description)
	assert.Equal(t, []string{"rest", "drink fluids"}, rec.Precautions)
	assert.Equal(t, []string{"Paracetamol", "Oseltamivir"}, rec.Medications)
	assert.Equal(t, "General Physician", rec.Specialist)
}

func TestLookupFallsBackPerField(t *testing.T) {
	store, err := LoadStore(writeFixtures(t, ""))
	require.NoError(t, err)

	// Malaria has a description, precautions and specialist but no medications row.
	rec := store.Lookup("Malaria")
	assert.Equal(t, "Mosquito-borne parasite.", rec.Description)
	assert.Equal(t, []string{"use nets"}, rec.Precautions)
	assert.Equal(t, []string{NoMedications}, rec.Medications)
	assert.Equal(t, "Infectious Disease Specialist", rec.Specialist)
}

func TestLookupUnknownDisease(t *testing.T) {
	store, err := LoadStore(writeFixtures(t, ""))
	require.NoError(t, err)

	rec := store.Lookup("Unknown Disease")
	assert.Equal(t, Record{
		Description: NoDescription,
		Precautions: []string{NoPrecautions},
		Medications: []string{NoMedications},
		Specialist:  DefaultSpecialist,
	}, rec)
}

func TestLookupBlankCellsUsePlaceholders(t *testing.T) {
	parse := func(s string) *dataset.Table {
		table, err := dataset.ReadTable(strings.NewReader(s))
		require.NoError(t, err)
		return table
	}
	store, err := NewStore(Tables{
		Descriptions: parse("Disease,Description\nFlu,\nMalaria,nan\nMalaria,Mosquito-borne parasite.\n"),
		Precautions:  parse(fixtureFiles[PrecautionFile]),
		Medications:  parse(fixtureFiles[MedicationFile]),
		Specialists:  parse("Disease,Specialist\nFlu,\nMalaria\n"),
	})
	require.NoError(t, err)

	flu := store.Lookup("Flu")
	assert.Equal(t, NoDescription, flu.Description)
	assert.Equal(t, DefaultSpecialist, flu.Specialist)

	malaria := store.Lookup("Malaria")
	assert.Equal(t, "Mosquito-borne parasite.", malaria.Description)
	assert.Equal(t, DefaultSpecialist, malaria.Specialist)
}

func TestLoadStoreMissingFile(t *testing.T) {
	_, err := LoadStore(writeFixtures(t, SpecialistFile))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), SpecialistFile)
}

func TestNewStoreRejectsMalformedTables(t *testing.T) {
	parse := func(s string) *dataset.Table {
		table, err := dataset.ReadTable(strings.NewReader(s))
		require.NoError(t, err)
		return table
	}
	good := Tables{
		Descriptions: parse(fixtureFiles[DescriptionFile]),
		Precautions:  parse(fixtureFiles[PrecautionFile]),
		Medications:  parse(fixtureFiles[MedicationFile]),
		Specialists:  parse(fixtureFiles[SpecialistFile]),
	}

	bad := good
	bad.Precautions = parse("Disease\nFlu\n")
	_, err := NewStore(bad)
	assert.Error(t, err)

	bad = good
	bad.Descriptions = parse("Disease\nFlu\n")
	_, err = NewStore(bad)
	assert.Error(t, err)

	bad = good
	bad.Specialists = nil
	_, err = NewStore(bad)
	assert.Error(t, err)

	store, err := NewStore(good)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Diseases()["descriptions"])
	assert.Equal(t, 1, store.Diseases()["medications"])
}
