package main

import (
	"fmt"

	"github.com/DanteAc13/propintel/internal/cli"
	"github.com/DanteAc13/propintel/internal/engine"
	"github.com/DanteAc13/propintel/internal/metrics"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/rules"
	"github.com/spf13/cobra"
)

type matchOptions struct {
	section    string
	component  string
	status     string
	severity   string
	urgency    string
	dictionary string
	builtin    bool
	asJSON     bool
}

type matchOutput struct {
	Match model.MatchResult `json:"match"`
	Issue *model.Issue      `json:"issue"`
}

func matchCmd() *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one observation against the defect dictionary",
		Long: `Run the three match tiers for a single observation and preview the issue it
would produce. Nothing is stored.

With --dictionary or --builtin the match runs offline against a dictionary file;
otherwise it uses the dictionary in the database.`,
		Example: `  propintel match --section Roof --component Shingles --status DEFICIENT --severity MAJOR_DEFECT
  propintel match --builtin --section Electrical --component "Main Panel" --status DEFICIENT --severity SAFETY_HAZARD --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.section, "section", "s", "", "section template name or id (required)")
	cmd.Flags().StringVarP(&opts.component, "component", "c", "", "component as recorded by the inspector (required)")
	cmd.Flags().StringVar(&opts.status, "status", "", "observation status, e.g. DEFICIENT (required)")
	cmd.Flags().StringVar(&opts.severity, "severity", "", "observation severity, e.g. MAJOR_DEFECT (required)")
	cmd.Flags().StringVar(&opts.urgency, "urgency", "", "urgency for the issue preview (default: derived from severity)")
	cmd.Flags().StringVar(&opts.dictionary, "dictionary", "", "match offline against this dictionary file")
	cmd.Flags().BoolVar(&opts.builtin, "builtin", false, "match offline against the built-in dictionary")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "output JSON")

	for _, name := range []string{"section", "component", "status", "severity"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.MarkFlagsMutuallyExclusive("dictionary", "builtin")

	return cmd
}

func runMatch(cmd *cobra.Command, opts matchOptions) error {
	ctx := cmd.Context()

	status, err := model.ParseObservationStatus(opts.status)
	if err != nil {
		return err
	}
	severity, err := model.ParseObservationSeverity(opts.severity)
	if err != nil {
		return err
	}
	urgency := engine.CalculateUrgency(severity)
	if opts.urgency != "" {
		if urgency, err = model.ParseUrgency(opts.urgency); err != nil {
			return err
		}
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	collector := metrics.New()
	defer flushMetrics(collector, settings)

	var (
		dict      rules.Dictionary
		sectionID string
	)
	if opts.dictionary != "" || opts.builtin {
		set, err := loadDictionarySet(opts.dictionary)
		if err != nil {
			return err
		}
		// Offline entries use section names as template ids.
		dict = rules.NewMemoryDictionary(set.Entries())
		sectionID = opts.section
	} else {
		store, err := initStorage(ctx, settings)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		tmpl, err := resolveSection(ctx, store, opts.section)
		if err != nil {
			return err
		}
		dict = store
		sectionID = tmpl.ID
	}

	matcher := rules.NewMatcher(dict).WithObserver(collector)
	result, err := matcher.Match(ctx, model.MatchInput{
		SectionTemplateID: sectionID,
		Component:         opts.component,
		Status:            status,
		Severity:          severity,
	})
	if err != nil {
		return err
	}

	issue := rules.GenerateIssue(rules.IssueInput{Urgency: urgency, Match: result})
	collector.ObserveIssue(issue)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, matchOutput{Match: result, Issue: issue})
	}

	fmt.Fprintln(out, cli.RenderMatch(result))
	if issue != nil {
		fmt.Fprintln(out, cli.RenderIssue(issue))
	}
	return nil
}
