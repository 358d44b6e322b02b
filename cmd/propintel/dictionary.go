package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/DanteAc13/propintel/internal/cli"
	"github.com/DanteAc13/propintel/internal/dictionary"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/spf13/cobra"
)

func dictionaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Load and inspect the defect dictionary",
		Long:  `Seed the defect dictionary from the built-in defaults or a YAML file, and list its section templates and rows.`,
	}

	cmd.AddCommand(seedDictionaryCmd())
	cmd.AddCommand(listDictionaryCmd())
	cmd.AddCommand(listSectionsCmd())

	return cmd
}

// loadDictionarySet reads path, or the built-in dictionary when path is empty.
func loadDictionarySet(path string) (*dictionary.Set, error) {
	if path == "" {
		return dictionary.Default()
	}
	return dictionary.LoadFile(path)
}

func seedDictionaryCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert section templates and defect rows",
		Long: `Upsert the built-in dictionary, or the one in --file, into the database.

Rows are keyed on section, component, condition and severity, so seeding is
idempotent. Rows whose section is not known are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			set, err := loadDictionarySet(file)
			if err != nil {
				return err
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tx, err := store.BeginTx(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			result, err := dictionary.Seed(ctx, tx, set)
			if err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit dictionary: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Seeded %d sections and %d defects", result.Sections, result.Defects)))
			if result.Skipped > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipped %d defects with an unknown section", result.Skipped)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "dictionary YAML file (default: built-in dictionary)")

	return cmd
}

func listDictionaryCmd() *cobra.Command {
	var (
		section string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List defect dictionary rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := store.ListSectionTemplates(ctx)
			if err != nil {
				return err
			}
			names := make(map[string]string, len(templates))
			for _, tmpl := range templates {
				names[tmpl.ID] = tmpl.Name
			}

			var sectionID string
			if section != "" {
				tmpl, err := resolveSection(ctx, store, section)
				if err != nil {
					return err
				}
				sectionID = tmpl.ID
			}

			defects, err := store.ListDefects(ctx, sectionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, defects)
			}
			if len(defects) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No defects found. Use 'propintel dictionary seed' to load the defaults."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("SECTION"),
				cli.BoldStyle.Render("COMPONENT"),
				cli.BoldStyle.Render("CONDITION"),
				cli.BoldStyle.Render("SEVERITY"),
				cli.BoldStyle.Render("SCORE"),
				cli.BoldStyle.Render("TITLE"))
			for i := range defects {
				d := &defects[i]
				severity := "any"
				if d.SeverityMatch != nil {
					severity = string(*d.SeverityMatch)
				}
				title := d.NormalizedTitle
				if !d.IsActive {
					title = cli.SubtleStyle.Render(title + " (inactive)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					names[d.SectionTemplateID], d.ComponentMatch, d.ConditionMatch, severity, d.DefaultSeverityScore, title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "limit to one section template (name or id)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	return cmd
}

func listSectionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List section templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := store.ListSectionTemplates(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if templates == nil {
					templates = []model.SectionTemplate{}
				}
				return writeJSON(out, templates)
			}
			if len(templates) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No section templates found. Use 'propintel dictionary seed' to load the defaults."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render("NAME"),
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("COMPONENTS"))
			for _, tmpl := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tmpl.Name, tmpl.ID, strings.Join(tmpl.DefaultComponents, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	return cmd
}

