package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	appConversation "github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/wire"
)

func newAskCmd() *cobra.Command {
	var (
		file     string
		userID   string
		resumeID string
		chartOut string
		persist  bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Open a dataset and ask one or more questions in a single session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, questions []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			if !persist && resumeID == "" {
				// viper maps database.enabled to this variable
				if err := os.Setenv("EDACHAT_DATABASE_ENABLED", "false"); err != nil {
					return err
				}
			}

			app, cleanup, err := wire.InitializeAll()
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()

			view, err := app.Conversation.OpenSession(cmd.Context(), appConversation.OpenRequest{
				UserID:   userID,
				FileName: filepath.Base(file),
				Data:     f,
				ResumeID: resumeID,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s: %s (%d rows x %d columns)\n\n",
				view.ID, view.Dataset.Name, view.Dataset.Rows, view.Dataset.Cols)

			for i, q := range questions {
				res, err := app.Conversation.Ask(cmd.Context(), view.ID, q)
				if err != nil {
					return err
				}
				if err := printTurn(out, res, chartOut == ""); err != nil {
					return err
				}
				if chartOut != "" {
					if err := writeCharts(chartOut, i, res.Messages); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to analyze")
	cmd.Flags().StringVar(&userID, "user", "cli", "user the session belongs to")
	cmd.Flags().StringVar(&resumeID, "resume", "", "stored session to resume")
	cmd.Flags().StringVar(&chartOut, "chart-dir", "", "directory receiving chart JSON files instead of stdout")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the session in the database")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printTurn(w io.Writer, res *appConversation.TurnResult, charts bool) error {
	for _, m := range res.Messages {
		if m.Role != conversation.RoleAssistant {
			continue
		}
		if _, err := fmt.Fprintf(w, "[%s]\n%s\n", m.Agent, m.Content); err != nil {
			return err
		}
		if m.Code != "" {
			fmt.Fprintf(w, "\n```python\n%s\n```\n", m.Code)
		}
		if m.Chart != nil {
			fmt.Fprintf(w, "(chart: %s)\n", m.Chart.Title())
			if charts {
				data, err := m.Chart.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\n", data)
			}
		}
	}
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSugestões:")
		for _, s := range res.Suggestions {
			fmt.Fprintln(w, "  -", s)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeCharts(dir string, turn int, msgs []conversation.Message) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, m := range msgs {
		if m.Chart == nil {
			continue
		}
		data, err := m.Chart.JSON()
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("turn-%02d.json", turn+1))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
