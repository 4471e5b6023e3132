package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/passport-office-api/internal/dto"
	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/pkg/config"
	"github.com/noah-isme/passport-office-api/pkg/logger"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load person records from a YAML change set",
		Long: `Reads a YAML document with optional create, update and delete lists
and commits it as one change set. Example:

  create:
    - first_name: Ann
      last_name: Smith
      birth_date: 1990-01-01
      passport_series: "4502"
      passport_number: "123456"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			replace, _ := cmd.Flags().GetBool("replace")
			return runImport(cmd.Context(), file, replace, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("file", "persons.yaml", "Path to the YAML change set")
	cmd.Flags().Bool("replace", false, "Remove every existing record before importing")
	return cmd
}

func runImport(ctx context.Context, path string, replace bool, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	changes, err := decodeChangeSet(f)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer a.close()

	if replace {
		if err := a.persons.RemoveAll(ctx); err != nil {
			return err
		}
	}
	result, err := a.persons.Save(ctx, changes)
	if err != nil {
		return err
	}
	logr.Info("import finished", zap.String("file", path), zap.Int("created", len(result.CreatedIDs)))
	_, err = fmt.Fprintf(out, "created %d, updated %d, deleted %d\n", len(result.CreatedIDs), result.Updated, result.Deleted)
	return err
}

// decodeChangeSet parses a YAML batch document. Unknown keys are rejected.
func decodeChangeSet(r io.Reader) (models.PersonChangeSet, error) {
	var batch dto.PersonBatchRequest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&batch); err != nil {
		if err == io.EOF {
			return models.PersonChangeSet{}, nil
		}
		return models.PersonChangeSet{}, fmt.Errorf("decode import file: %w", err)
	}
	return batch.ToChangeSet()
}
