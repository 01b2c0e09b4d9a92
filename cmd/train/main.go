// Command train fits the decision tree on the training table and writes the
// model file the server loads at startup.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Skufu/symptom-checker/internal/dataset"
	"github.com/Skufu/symptom-checker/internal/diagnosis"
	"github.com/Skufu/symptom-checker/internal/model"
)

type trainOptions struct {
	dataDir     string
	trainPath   string
	out         string
	labelColumn string
	seed        int64
	maxDepth    int
	samples     []int
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	_ = godotenv.Load()

	opts := trainOptions{}
	cmd := &cobra.Command{
		Use:          "train",
		Short:        "Fit the symptom classifier and save it as JSON",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			return runTrain(opts, out, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dataDir, "data", envOr("DATA_DIR", "dataset"), "directory holding the training table")
	flags.StringVar(&opts.trainPath, "training", "", "training CSV (default <data>/Training.csv)")
	flags.StringVarP(&opts.out, "out", "o", envOr("MODEL_PATH", ""), "model output path (default <data>/model.json)")
	flags.StringVar(&opts.labelColumn, "label-column", envOr("LABEL_COLUMN", dataset.DefaultLabelColumn), "column holding the disease label")
	flags.Int64Var(&opts.seed, "seed", model.DefaultSeed, "random seed for split ordering")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "maximum tree depth, 0 for unlimited")
	flags.IntSliceVar(&opts.samples, "verify", []int{0, 100, 200, 500, 1000}, "training rows to spot check after fitting")
	return cmd
}

func runTrain(opts trainOptions, out io.Writer, logger *logrus.Logger) error {
	trainPath := opts.trainPath
	if trainPath == "" {
		trainPath = filepath.Join(opts.dataDir, diagnosis.TrainingFile)
	}
	modelPath := opts.out
	if modelPath == "" {
		modelPath = filepath.Join(opts.dataDir, "model.json")
	}

	logger.WithField("path", trainPath).Info("loading training data")
	training, err := dataset.LoadTraining(trainPath, opts.labelColumn)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"cases":    len(training.Cases),
		"symptoms": training.Vocabulary.Len(),
		"seed":     opts.seed,
	}).Info("fitting decision tree")
	tree, err := model.Fit(training.Vocabulary.Names(), training.Cases, model.Options{
		Seed:     opts.seed,
		MaxDepth: opts.maxDepth,
	})
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	fmt.Fprintf(out, "Training accuracy: %.2f%%\n", tree.Accuracy(training.Cases)*100)
	fmt.Fprintf(out, "Tree depth: %d, nodes: %d, diseases: %d\n", tree.Depth(), len(tree.Nodes), len(tree.Labels))

	fmt.Fprintln(out, "Verifying predictions on sample cases:")
	for _, idx := range opts.samples {
		if idx < 0 || idx >= len(training.Cases) {
			continue
		}
		c := training.Cases[idx]
		predicted, _ := tree.Predict(c.Symptoms)
		status := "OK"
		if predicted != c.Label {
			status = "FAIL"
		}
		fmt.Fprintf(out, "  Row %d: Actual=%s, Predicted=%s [%s]\n", idx, c.Label, predicted, status)
	}

	if err := tree.SaveFile(modelPath); err != nil {
		return err
	}
	logger.WithField("path", modelPath).Info("model saved")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
