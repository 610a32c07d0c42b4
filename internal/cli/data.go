package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizmaker-service/internal/domain"
	"quizmaker-service/internal/spreadsheet"
)

// NewExportCmd writes questions and the leaderboard to XLSX files.
func NewExportCmd(configPath *string) *cobra.Command {
	var questionsOut, leaderboardOut string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export questions and the leaderboard to XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), *configPath, func(ctx context.Context, rt *runtime) error {
				if questionsOut != "" {
					questions, err := rt.services.Questions.List(ctx, domain.QuestionFilter{})
					if err != nil {
						return err
					}
					if err := writeFile(questionsOut, func(f *os.File) error { return spreadsheet.ExportQuestions(f, questions) }); err != nil {
						return err
					}
					rt.logger.Info("questions exported", "file", questionsOut, "count", len(questions))
				}
				if leaderboardOut != "" {
					rankings, err := rt.services.Leaderboard.Rankings(ctx)
					if err != nil {
						return err
					}
					attempts, err := rt.services.Leaderboard.Attempts(ctx)
					if err != nil {
						return err
					}
					if err := writeFile(leaderboardOut, func(f *os.File) error {
						return spreadsheet.ExportLeaderboard(f, rankings, attempts)
					}); err != nil {
						return err
					}
					rt.logger.Info("leaderboard exported", "file", leaderboardOut, "respondents", len(rankings))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&questionsOut, "questions", "questions.xlsx", "questions output file (empty to skip)")
	cmd.Flags().StringVar(&leaderboardOut, "leaderboard", "leaderboard.xlsx", "leaderboard output file (empty to skip)")
	return cmd
}

// NewImportCmd creates questions from an XLSX file.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import questions from an XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), *configPath, func(ctx context.Context, rt *runtime) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				result, err := spreadsheet.ImportQuestions(ctx, f, rt.services.Questions, rt.logger)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d of %d rows\n", result.SuccessCount, result.TotalRows)
				for _, e := range result.Errors {
					fmt.Fprintf(out, "row %d: %s %s\n", e.Row, e.Field, e.Message)
				}
				return nil
			})
		},
	}
}

// NewLeaderboardCmd prints the current rankings.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print respondents ranked by total score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), *configPath, func(ctx context.Context, rt *runtime) error {
				rankings, err := rt.services.Leaderboard.Rankings(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "RANK\tRESPONDENT\tTOTAL")
				for i, e := range rankings {
					fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, e.Respondent, e.TotalScore)
				}
				return w.Flush()
			})
		},
	}
}

func withRuntime(ctx context.Context, configPath string, fn func(context.Context, *runtime) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
