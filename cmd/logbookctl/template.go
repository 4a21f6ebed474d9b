package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/logbook"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/vai-thieu.yaml
var defaultTemplate []byte

var (
	templateFile    string
	templateReplace bool
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage plan templates",
}

var templateSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a plan template from YAML",
	Long: `Load a plan template from a YAML file, or the built-in export litchi
plan when --file is not given. A template with the same name is left alone
unless --replace is set.`,
	Example: `  logbookctl template seed
  logbookctl template seed --file rice.yaml --replace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tpl, err := loadTemplate(templateFile)
		if err != nil {
			return err
		}
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		created, err := seedTemplate(ctx, e.st, tpl, templateReplace, time.Now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case created:
			fmt.Fprintf(out, "created template %q (%s)\n", tpl.Name, tpl.ID.Hex())
		case templateReplace:
			fmt.Fprintf(out, "replaced template %q (%s)\n", tpl.Name, tpl.ID.Hex())
		default:
			fmt.Fprintf(out, "template %q already exists, use --replace to overwrite it\n", tpl.Name)
			return nil
		}
		fmt.Fprintf(out, "%d stages, %d tasks\n", len(tpl.Stages), taskCount(tpl))
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plan templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		list, err := e.st.ListTemplates(ctx)
		if err != nil {
			return err
		}
		return printTemplates(cmd.OutOrStdout(), list)
	},
}

func init() {
	templateSeedCmd.Flags().StringVarP(&templateFile, "file", "f", "", "template YAML file (default: built-in litchi plan)")
	templateSeedCmd.Flags().BoolVar(&templateReplace, "replace", false, "overwrite a template with the same name")
	templateCmd.AddCommand(templateSeedCmd, templateListCmd)
	rootCmd.AddCommand(templateCmd)
}

// loadTemplate decodes and checks the template at path, or the built-in one
// when path is empty.
func loadTemplate(path string) (*models.Template, error) {
	data := defaultTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var tpl models.Template
	if err := dec.Decode(&tpl); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if err := logbook.CheckTemplate(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// seedTemplate inserts tpl, or overwrites the template of the same name when
// replace is set. It reports whether a new template was created.
func seedTemplate(ctx context.Context, st store.Templates, tpl *models.Template, replace bool, now time.Time) (bool, error) {
	tpl.CreatedAt = now.UTC().Truncate(time.Millisecond)
	err := st.CreateTemplate(ctx, tpl)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return false, err
	}
	if !replace {
		return false, nil
	}

	list, err := st.ListTemplates(ctx)
	if err != nil {
		return false, err
	}
	for _, old := range list {
		if old.Name == tpl.Name {
			tpl.ID = old.ID
			return false, st.UpdateTemplate(ctx, tpl)
		}
	}
	return false, apperr.NotFound("template %q", tpl.Name)
}

func taskCount(t *models.Template) int {
	n := 0
	for _, st := range t.Stages {
		n += len(st.Tasks)
	}
	return n
}

func printTemplates(w io.Writer, list []models.Template) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCROP\tSTAGES\tTASKS")
	for i := range list {
		t := &list[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", t.ID.Hex(), t.Name, t.CropType, len(t.Stages), taskCount(t))
	}
	return tw.Flush()
}
