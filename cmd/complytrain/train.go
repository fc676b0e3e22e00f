package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/complytrain/internal/course"
	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/profile"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Generate a personalized training unit",
	Long: `Load your profile, pick a topic and generate an introduction, a
scenario set in your workplace and a multiple-choice question.

Examples:
  complytrain train
  complytrain train --topic 3 --yes
  complytrain train --topic "Speaking Up" --server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topicFlag, _ := cmd.Flags().GetString("topic")
		profilePath, _ := cmd.Flags().GetString("profile")
		yes, _ := cmd.Flags().GetBool("yes")
		remote, _ := cmd.Flags().GetBool("server")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if remote {
			if topicFlag == "" {
				return errors.New("--server requires --topic")
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			return runRemoteTrain(ctx, client, topicFlag, cmd.OutOrStdout())
		}

		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		if profilePath == "" {
			profilePath = a.cfg.Profile.Path
		}
		if err := llm.EnsureReady(ctx, a.completer, stderr); err != nil {
			return err
		}

		t := &trainer{
			gen: course.NewGenerator(a.completer, a.logger),
			in:  bufio.NewReader(cmd.InOrStdin()),
			out: cmd.OutOrStdout(),
		}
		return t.run(ctx, profilePath, topicFlag, yes)
	},
}

// trainer runs the terminal training flow.
type trainer struct {
	gen *course.Generator
	in  *bufio.Reader
	out io.Writer
}

func (t *trainer) run(ctx context.Context, profilePath, topicFlag string, yes bool) error {
	p, err := profile.Load(profilePath)
	if err != nil {
		if errors.Is(err, profile.ErrMissingProfile) {
			return fmt.Errorf("%w. Run 'complytrain profile build' first", err)
		}
		return err
	}

	name, _ := p.Get(profile.KeyName)
	fmt.Fprintln(t.out, course.WelcomeMessage(name))

	var topic course.Topic
	if topicFlag != "" {
		var ok bool
		if topic, ok = course.SelectTopic(topicFlag); !ok {
			return fmt.Errorf("%w: %q", course.ErrUnknownTopic, topicFlag)
		}
	} else if topic, err = t.chooseTopic(ctx); err != nil {
		return err
	}

	if !yes {
		start, err := confirm(t.in, t.out, fmt.Sprintf("\nStart training on %s?", colorize(colorBold, string(topic))), true)
		if err != nil {
			return err
		}
		if !start {
			printWarning("Training cancelled.")
			return nil
		}
	}

	printStep("Generating your training on %s...", topic)
	_, err = t.gen.Generate(ctx, topic, p, func(stage course.Stage, text string) {
		printSection(t.out, stage, text)
	})
	return err
}

// chooseTopic asks until the input resolves to a topic. Exact choices are
// taken as is; anything else goes to the model for a suggestion the user
// must accept.
func (t *trainer) chooseTopic(ctx context.Context) (course.Topic, error) {
	for {
		fmt.Fprint(t.out, "\nChoose a topic (number or name): ")
		line, err := readLine(t.in)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if topic, ok := course.SelectTopic(line); ok {
			return topic, nil
		}

		suggestion, ok, err := t.gen.MatchTopic(ctx, line)
		if err != nil {
			printWarning("Could not suggest a topic: %v", err)
			continue
		}
		if !ok {
			printWarning("%s", course.NoMatchSentinel)
			continue
		}
		accept, err := confirm(t.in, t.out, fmt.Sprintf("Did you mean %s?", colorize(colorBold, string(suggestion))), false)
		if err != nil {
			return "", err
		}
		if accept {
			return suggestion, nil
		}
	}
}

func runRemoteTrain(ctx context.Context, client *apiClient, topic string, out io.Writer) error {
	printStep("Requesting training from %s...", client.baseURL)
	resp, err := client.post(ctx, "/training", map[string]string{"topic": topic})
	if err != nil {
		return err
	}

	var a course.Artifact
	if err := decodeJSON(resp, &a); err != nil {
		return err
	}
	printSection(out, course.StageIntro, a.Intro)
	printSection(out, course.StageScenario, a.Scenario)
	printSection(out, course.StageQuestion, a.Question)
	return nil
}

func init() {
	trainCmd.Flags().String("topic", "", "topic label or menu number (prompted when empty)")
	trainCmd.Flags().String("profile", "", "profile file to read (default: profile.path)")
	trainCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	trainCmd.Flags().Bool("server", false, "generate on a running 'complytrain serve' instead of locally")
}

// --- topics ---

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the training topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		for i, topic := range course.Topics() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", colorize(colorCyan, fmt.Sprintf("%d.", i+1)), topic)
		}
		return nil
	},
}

var topicsMatchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Ask the model which topic fits a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		gen := course.NewGenerator(a.completer, a.logger)
		topic, ok, err := gen.MatchTopic(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if !ok {
			printWarning("%s", course.NoMatchSentinel)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), topic)
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsMatchCmd)
}
