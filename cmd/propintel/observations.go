package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/DanteAc13/propintel/internal/cli"
	"github.com/DanteAc13/propintel/internal/engine"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/spf13/cobra"
)

func observationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "observations",
		Aliases: []string{"obs"},
		Short:   "Record and manage inspection observations",
		Long: `Record observations and keep their issues in sync.

Recording runs the rules engine and stores the resulting issue. Updating the
status or severity regenerates the issue; deleting removes it.`,
	}

	cmd.AddCommand(recordObservationCmd())
	cmd.AddCommand(updateObservationCmd())
	cmd.AddCommand(deleteObservationCmd())
	cmd.AddCommand(listObservationsCmd())

	return cmd
}

// printOutcome renders the result of recording or updating an observation.
func printOutcome(cmd *cobra.Command, outcome *engine.Outcome, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, outcome)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Saved observation "+outcome.Observation.ID))
	switch {
	case !outcome.Regenerated:
		fmt.Fprintln(out, cli.FormatInfo("Status and severity unchanged; existing issues kept"))
	case outcome.Issue != nil:
		fmt.Fprintln(out, cli.RenderIssue(outcome.Issue))
	default:
		fmt.Fprintln(out, cli.FormatWarning("No dictionary match; flag this observation for manual review"))
	}
	return nil
}

func recordObservationCmd() *cobra.Command {
	var (
		obs                                model.Observation
		section, status, severity, urgency string
		asJSON                             bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an observation and generate its issue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var err error
			if obs.Status, err = model.ParseObservationStatus(status); err != nil {
				return err
			}
			if obs.Severity, err = model.ParseObservationSeverity(severity); err != nil {
				return err
			}
			if urgency != "" {
				if obs.Urgency, err = model.ParseUrgency(urgency); err != nil {
					return err
				}
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

			tmpl, err := resolveSection(ctx, store, section)
			if err != nil {
				return err
			}
			obs.SectionTemplateID = tmpl.ID

			processor, collector := newProcessor(store, settings)
			defer flushMetrics(collector, settings)

			outcome, err := processor.Record(ctx, &obs)
			if err != nil {
				return fmt.Errorf("failed to record observation: %w", err)
			}
			return printOutcome(cmd, outcome, asJSON)
		},
	}

	cmd.Flags().StringVar(&obs.ID, "id", "", "observation id (default: generated)")
	cmd.Flags().StringVar(&obs.InspectionID, "inspection", "", "inspection id (required)")
	cmd.Flags().StringVar(&obs.PropertyID, "property", "", "property id (required)")
	cmd.Flags().StringVarP(&section, "section", "s", "", "section template name or id (required)")
	cmd.Flags().StringVarP(&obs.Component, "component", "c", "", "component (required)")
	cmd.Flags().StringVar(&status, "status", "", "observation status (required)")
	cmd.Flags().StringVar(&severity, "severity", "", "observation severity (required)")
	cmd.Flags().StringVar(&urgency, "urgency", "", "urgency (default: derived from severity)")
	cmd.Flags().StringVar(&obs.DescriptionRaw, "description", "", "inspector's raw description")
	cmd.Flags().StringVar(&obs.LocationDetail, "location", "", "where on the property")
	cmd.Flags().StringVar(&obs.InspectorNotes, "notes", "", "inspector notes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	for _, name := range []string{"inspection", "property", "section", "component", "status", "severity"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func updateObservationCmd() *cobra.Command {
	var (
		component, status, severity, urgency string
		description, location, notes         string
		asJSON                               bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an observation",
		Long:  `Update fields of an observation. Changing --status or --severity deletes its issues and runs the rules engine again.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			var patch engine.ObservationPatch
			if flags.Changed("component") {
				patch.Component = &component
			}
			if flags.Changed("status") {
				s, err := model.ParseObservationStatus(status)
				if err != nil {
					return err
				}
				patch.Status = &s
			}
			if flags.Changed("severity") {
				s, err := model.ParseObservationSeverity(severity)
				if err != nil {
					return err
				}
				patch.Severity = &s
			}
			if flags.Changed("urgency") {
				u, err := model.ParseUrgency(urgency)
				if err != nil {
					return err
				}
				patch.Urgency = &u
			}
			if flags.Changed("description") {
				patch.DescriptionRaw = &description
			}
			if flags.Changed("location") {
				patch.LocationDetail = &location
			}
			if flags.Changed("notes") {
				patch.InspectorNotes = &notes
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

			processor, collector := newProcessor(store, settings)
			defer flushMetrics(collector, settings)

			outcome, err := processor.Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update observation: %w", err)
			}
			return printOutcome(cmd, outcome, asJSON)
		},
	}

	cmd.Flags().StringVarP(&component, "component", "c", "", "component")
	cmd.Flags().StringVar(&status, "status", "", "observation status")
	cmd.Flags().StringVar(&severity, "severity", "", "observation severity")
	cmd.Flags().StringVar(&urgency, "urgency", "", "urgency")
	cmd.Flags().StringVar(&description, "description", "", "inspector's raw description")
	cmd.Flags().StringVar(&location, "location", "", "where on the property")
	cmd.Flags().StringVar(&notes, "notes", "", "inspector notes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	return cmd
}

func deleteObservationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an observation and its issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			processor, _ := newProcessor(store, settings)
			if err := processor.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete observation: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted observation "+args[0]))
			return nil
		},
	}
}

func listObservationsCmd() *cobra.Command {
	var (
		inspection string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the observations of an inspection",
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

			observations, err := store.ListObservationsByInspection(ctx, inspection)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if observations == nil {
					observations = []model.Observation{}
				}
				return writeJSON(out, observations)
			}
			if len(observations) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No observations found for inspection "+inspection))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("COMPONENT"),
				cli.BoldStyle.Render("STATUS"),
				cli.BoldStyle.Render("SEVERITY"),
				cli.BoldStyle.Render("URGENCY"))
			for _, obs := range observations {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", obs.ID, obs.Component, obs.Status, obs.Severity, obs.Urgency)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inspection, "inspection", "", "inspection id (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	_ = cmd.MarkFlagRequired("inspection")

	return cmd
}
