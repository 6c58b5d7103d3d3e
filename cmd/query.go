package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
)

var (
	jobID       string
	applicantID string
	allRegions  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one job/applicant pair and print the reasons",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateFlags(
			flagID{"job", jobID},
			flagID{"applicant", applicantID},
		); err != nil {
			return err
		}

		d, err := newDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		score, err := d.finder.Explain(cmd.Context(), jobID, applicantID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), model.MatchResult{
			ApplicantID: applicantID,
			JobID:       jobID,
			MatchScore:  score.Value,
			Reasons:     score.Reasons,
		})
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List ranked matches for a job (--job) or an applicant (--applicant)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkMatchesFlags(jobID, applicantID, allRegions); err != nil {
			return err
		}

		d, err := newDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		var matches []model.MatchResult
		switch {
		case jobID != "":
			matches, err = d.finder.MatchesForJob(cmd.Context(), jobID)
		case allRegions:
			matches, err = d.finder.MatchesForApplicantAllRegions(cmd.Context(), applicantID)
		default:
			matches, err = d.finder.MatchesForApplicant(cmd.Context(), applicantID)
		}
		if err != nil {
			return err
		}
		d.logger.Debug("matches found", zap.Int("count", len(matches)))
		return printJSON(cmd.OutOrStdout(), matches)
	},
}

// checkMatchesFlags rejects flag combinations the matches command cannot
// honour before any connection is opened.
func checkMatchesFlags(job, applicant string, allRegions bool) error {
	if (job == "") == (applicant == "") {
		return errors.New("exactly one of --job or --applicant is required")
	}
	if job != "" {
		if allRegions {
			return errors.New("--all-regions requires --applicant")
		}
		return match.ValidateID("job", job)
	}
	return match.ValidateID("applicant", applicant)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notify the top applicants for a job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := match.ValidateID("job", jobID); err != nil {
			return err
		}

		d, err := newDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		report, err := d.finder.NotifyTopMatches(cmd.Context(), jobID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one notification sweep over recently posted jobs and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := newDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		report := d.newScheduler().Sweep(cmd.Context())
		return printJSON(cmd.OutOrStdout(), map[string]int{
			"scanned":  report.Scanned,
			"notified": report.Notified,
			"skipped":  report.Skipped,
			"failed":   report.Failed,
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd, matchesCmd, notifyCmd, sweepCmd)

	scoreCmd.Flags().StringVar(&jobID, "job", "", "job id")
	scoreCmd.Flags().StringVar(&applicantID, "applicant", "", "applicant profile id")

	matchesCmd.Flags().StringVar(&jobID, "job", "", "rank applicants for this job id")
	matchesCmd.Flags().StringVar(&applicantID, "applicant", "", "rank jobs for this applicant id")
	matchesCmd.Flags().BoolVar(&allRegions, "all-regions", false, "with --applicant: consider every active job")

	notifyCmd.Flags().StringVar(&jobID, "job", "", "job id")
	_ = notifyCmd.MarkFlagRequired("job")
}

type flagID struct {
	name  string
	value string
}

func validateFlags(flags ...flagID) error {
	for _, f := range flags {
		if err := match.ValidateID(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
