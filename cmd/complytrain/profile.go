package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/profile"
	"github.com/kalambet/complytrain/internal/questionnaire"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build or show your training profile",
}

var profileBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Answer a short questionnaire to build your profile",
	Long: `Answer four questions (name, work location, department, seniority)
phrased by the model. The answers are saved as a flat JSON file that
'complytrain train' reads.

Examples:
  complytrain profile build
  complytrain profile build --out ~/training/user_profile.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = a.cfg.Profile.Path
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := llm.EnsureReady(ctx, a.completer, stderr); err != nil {
			return err
		}

		b := questionnaire.NewBuilder(a.completer, a.logger)
		return runProfileBuild(ctx, b, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), out)
	},
}

// runProfileBuild drives the questionnaire on a terminal: one generated
// question per step, blank answers re-asked, and a failed generation retried
// when the user presses Enter.
func runProfileBuild(ctx context.Context, b *questionnaire.Builder, in *bufio.Reader, out io.Writer, path string) error {
	s := b.Start()
	for {
		next, view, err := b.Render(ctx, s)
		s = next
		if err != nil {
			printError("%v", err)
			fmt.Fprint(out, "Press Enter to try again. ")
			if _, err := readLine(in); err != nil {
				return err
			}
			continue
		}
		if view.Complete {
			break
		}

		fmt.Fprintf(out, "\n%s %s\n%s ",
			colorize(colorCyan, fmt.Sprintf("[%d/%d]", view.Step+1, view.Total)),
			colorize(colorBold, view.Question),
			view.Label,
		)
		answer, err := readLine(in)
		if err != nil {
			return fmt.Errorf("profile not saved: %w", err)
		}

		s, err = b.Submit(s, answer)
		if errors.Is(err, questionnaire.ErrEmptyAnswer) {
			printWarning("Please enter an answer.")
			continue
		}
		if err != nil {
			return err
		}
	}

	data, err := b.Export(s)
	if err != nil {
		return err
	}
	if err := profile.Save(path, s.Answers); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(out, "\n%s\n", data)
	printSuccess("Profile saved to %s", path)
	return nil
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			cfg, err := loadPartialConfig()
			if err != nil {
				return err
			}
			path = cfg.Profile.Path
		}

		p, err := profile.Load(path)
		if err != nil {
			if errors.Is(err, profile.ErrMissingProfile) {
				return fmt.Errorf("%w. Run 'complytrain profile build' first", err)
			}
			return err
		}

		data, err := profile.Encode(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	},
}

func init() {
	profileBuildCmd.Flags().String("out", "", "where to save the profile (default: profile.path)")
	profileShowCmd.Flags().String("path", "", "profile file to read (default: profile.path)")
	profileCmd.AddCommand(profileBuildCmd)
	profileCmd.AddCommand(profileShowCmd)
}

