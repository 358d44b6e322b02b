package main

import (
	"errors"
	"fmt"

	"github.com/DanteAc13/propintel/internal/cli"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/spf13/cobra"
)

func issuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List and regenerate issues",
	}

	cmd.AddCommand(listIssuesCmd())
	cmd.AddCommand(regenerateIssuesCmd())

	return cmd
}

func listIssuesCmd() *cobra.Command {
	var (
		inspection, property string
		asJSON               bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues for an inspection or a property, most severe first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if inspection == "" && property == "" {
				return errors.New("one of --inspection or --property is required")
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

			var issues []model.Issue
			if inspection != "" {
				issues, err = store.ListIssuesByInspection(ctx, inspection)
			} else {
				issues, err = store.ListIssuesByProperty(ctx, property)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if issues == nil {
					issues = []model.Issue{}
				}
				return writeJSON(out, issues)
			}
			if len(issues) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No issues found."))
				return nil
			}

			fmt.Fprintln(out, cli.RenderIssueTable(issues))
			return nil
		},
	}

	cmd.Flags().StringVar(&inspection, "inspection", "", "inspection id")
	cmd.Flags().StringVar(&property, "property", "", "property id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.MarkFlagsMutuallyExclusive("inspection", "property")

	return cmd
}

func regenerateIssuesCmd() *cobra.Command {
	var (
		inspection string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Match every observation of an inspection again and replace its issues",
		Long: `Run the rules engine again for every observation of an inspection, typically
after the defect dictionary was reseeded. All issues are replaced in one
transaction; an interrupted run writes nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "propintel issues regenerate --inspection "+inspection)
			defer handler.Stop()

			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			observations, err := store.ListObservationsByInspection(ctx, inspection)
			if err != nil {
				return err
			}
			if len(observations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No observations found for inspection "+inspection))
				return nil
			}

			processor, collector := newProcessor(store, settings)
			defer flushMetrics(collector, settings)

			var step func()
			if !quiet {
				progress := cli.NewProgress(cmd.ErrOrStderr(), len(observations), "Regenerating issues...")
				step = progress.Step
			}

			result, err := processor.Reprocess(ctx, inspection, step)
			if err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				return fmt.Errorf("failed to regenerate issues: %w", err)
			}

			out := cmd.OutOrStdout()
			summary := fmt.Sprintf("Observations: %d\nIssues: %d\nNeeds review: %d",
				result.Observations, result.Issues, result.NeedsReview)
			fmt.Fprintln(out, cli.RenderBox("Regeneration Complete", summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&inspection, "inspection", "", "inspection id (required)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	_ = cmd.MarkFlagRequired("inspection")

	return cmd
}
