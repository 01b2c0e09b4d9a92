package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/symptom-checker/internal/symptoms"
)

const sampleTraining = `fever,cough,headache,prognosis,
1,1,0,Flu,
0,0,1,Migraine,
1,0,0,Malaria,
1,1,0,Flu,
`

func TestReadTraining(t *testing.T) {
	training, err := ReadTraining(strings.NewReader(sampleTraining), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"fever", "cough", "headache"}, training.Vocabulary.Names())
	require.Len(t, training.Cases, 4)
	assert.Equal(t, Case{Label: "Flu", Symptoms: symptoms.Vector{1, 1, 0}}, training.Cases[0])
	assert.Equal(t, Case{Label: "Migraine", Symptoms: symptoms.Vector{0, 0, 1}}, training.Cases[1])
	assert.Equal(t, []string{"Flu", "Malaria", "Migraine"}, training.Labels())
}

func TestReadTrainingTrimsCellsAndSkipsBlankRows(t *testing.T) {
	data := "\ufefffever, cough ,prognosis\n1, 0 , Flu \n,,\n0,1,Cold\n"

	training, err := ReadTraining(strings.NewReader(data), "prognosis")
	require.NoError(t, err)

	assert.Equal(t, []string{"fever", "cough"}, training.Vocabulary.Names())
	require.Len(t, training.Cases, 2)
	assert.Equal(t, "Flu", training.Cases[0].Label)
	assert.Equal(t, "Cold", training.Cases[1].Label)
}

func TestReadTrainingErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		msg     string
	}{
		{name: "empty file", data: "", wantErr: ErrEmptyTable},
		{name: "no label column", data: "fever,cough\n1,0\n", wantErr: ErrMissingLabelColumn},
		{name: "no symptom columns", data: "prognosis\nFlu\n", wantErr: ErrNoSymptomColumns},
		{name: "non binary cell", data: "fever,prognosis\nyes,Flu\n", msg: "not a binary value"},
		{name: "empty label", data: "fever,prognosis\n1,\n", msg: "empty label"},
		{name: "duplicate symptom", data: "fever,fever,prognosis\n1,0,Flu\n", msg: "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTraining(strings.NewReader(tt.data), "")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoadTrainingFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Training.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleTraining), 0o644))

	training, err := LoadTraining(path, DefaultLabelColumn)
	require.NoError(t, err)
	assert.Len(t, training.Cases, 4)
}

func TestLoadTrainingMissingFile(t *testing.T) {
	_, err := LoadTraining(filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTableColumn(t *testing.T) {
	table, err := ReadTable(strings.NewReader("Disease,Description\nFlu,Viral infection\n"))
	require.NoError(t, err)

	i, ok := table.Column("Description")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = table.Column("Specialist")
	assert.False(t, ok)
}
