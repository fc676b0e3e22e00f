package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/api"
	"github.com/kalambet/complytrain/internal/config"
	"github.com/kalambet/complytrain/internal/course"
	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/profile"
	"github.com/kalambet/complytrain/internal/questionnaire"
)

func TestMain(m *testing.M) {
	noColor = true
	stderr = io.Discard
	os.Exit(m.Run())
}

var ctx = context.Background()

// fakeCompleter answers by prompt marker, falling back to numbered replies.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	failN   int // fail this many calls first
	match   string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.failN > 0 {
		f.failN--
		return "", errors.New("rate limited")
	}
	if strings.Contains(prompt, course.NoMatchSentinel) {
		return f.match, nil
	}
	return fmt.Sprintf("Generated %d", len(f.prompts)), nil
}

func input(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func savedProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_profile.json")
	err := profile.Save(path, profile.FromMap(map[string]string{
		profile.KeyName:         "Sam",
		profile.KeyWorkLocation: "Paris",
		profile.KeyDepartment:   "Finance",
		profile.KeySeniority:    "Manager",
	}))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestColorize(t *testing.T) {
	noColor = false
	defer func() { noColor = true }()

	if got := colorize(colorRed, "x"); got != colorRed+"x"+colorReset {
		t.Errorf("colorize = %q", got)
	}
	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize with noColor = %q", got)
	}
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("first\r\nlast"))
	if got, err := readLine(r); err != nil || got != "first" {
		t.Errorf("readLine = %q, %v", got, err)
	}
	if got, err := readLine(r); err != nil || got != "last" {
		t.Errorf("readLine without newline = %q, %v", got, err)
	}
	if _, err := readLine(r); !errors.Is(err, errInputClosed) {
		t.Errorf("readLine at EOF err = %v", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"y", false, true},
		{"YES", false, true},
		{"n", true, false},
		{"maybe", true, false},
	}
	for _, tt := range tests {
		got, err := confirm(input(tt.in), io.Discard, "Go?", tt.def)
		if err != nil || got != tt.want {
			t.Errorf("confirm(%q, def=%v) = %v, %v; want %v", tt.in, tt.def, got, err, tt.want)
		}
	}
}

func TestProfileBuild(t *testing.T) {
	c := &fakeCompleter{}
	b := questionnaire.NewBuilder(c, zap.NewNop())
	path := filepath.Join(t.TempDir(), "out", "user_profile.json")
	var out bytes.Buffer

	// The blank line is rejected and the name asked again.
	err := runProfileBuild(ctx, b, input("", "Sam", "Paris", "Finance", "Manager"), &out, path)
	if err != nil {
		t.Fatalf("runProfileBuild: %v", err)
	}

	p, err := profile.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{
		profile.KeyName:         "Sam",
		profile.KeyWorkLocation: "Paris",
		profile.KeyDepartment:   "Finance",
		profile.KeySeniority:    "Manager",
	}
	for k, v := range want {
		if got, _ := p.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}

	if len(c.prompts) != 4 {
		t.Errorf("completer called %d times, want 4", len(c.prompts))
	}
	if strings.Count(out.String(), "Write your name here:") != 2 {
		t.Errorf("name label not shown twice after blank answer:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `"seniority level": "Manager"`) {
		t.Errorf("final JSON not printed:\n%s", out.String())
	}
}

func TestProfileBuild_RetriesFailedGeneration(t *testing.T) {
	c := &fakeCompleter{failN: 1}
	b := questionnaire.NewBuilder(c, zap.NewNop())
	path := filepath.Join(t.TempDir(), "user_profile.json")
	var out bytes.Buffer

	// First line is the Enter press that retries.
	err := runProfileBuild(ctx, b, input("", "Sam", "Paris", "Finance", "Manager"), &out, path)
	if err != nil {
		t.Fatalf("runProfileBuild: %v", err)
	}
	if !strings.Contains(out.String(), "Press Enter to try again.") {
		t.Errorf("no retry prompt:\n%s", out.String())
	}
	if len(c.prompts) != 5 {
		t.Errorf("completer called %d times, want 5", len(c.prompts))
	}
}

func TestProfileBuild_InputClosed(t *testing.T) {
	b := questionnaire.NewBuilder(&fakeCompleter{}, zap.NewNop())
	path := filepath.Join(t.TempDir(), "user_profile.json")

	err := runProfileBuild(ctx, b, input("Sam"), io.Discard, path)
	if !errors.Is(err, errInputClosed) {
		t.Fatalf("err = %v, want errInputClosed", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("partial profile was written")
	}
}

func TestTrain_WithTopicFlag(t *testing.T) {
	c := &fakeCompleter{}
	var out bytes.Buffer
	tr := &trainer{gen: course.NewGenerator(c, zap.NewNop()), in: input(), out: &out}

	if err := tr.run(ctx, savedProfile(t), "Data Protection", true); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	if !strings.HasPrefix(text, "Hello Sam,") {
		t.Errorf("welcome missing:\n%s", text)
	}
	intro := strings.Index(text, "Introduction\n")
	scenario := strings.Index(text, "Scenario\n")
	question := strings.Index(text, "Question\n")
	if intro < 0 || !(intro < scenario && scenario < question) {
		t.Errorf("sections out of order:\n%s", text)
	}
	for _, g := range []string{"Generated 1", "Generated 2", "Generated 3"} {
		if !strings.Contains(text, g) {
			t.Errorf("output lacks %q", g)
		}
	}
	if !strings.Contains(c.prompts[1], "Paris") || !strings.Contains(c.prompts[1], "Data Protection") {
		t.Errorf("scenario prompt = %q", c.prompts[1])
	}
}

func TestTrain_InteractiveSelection(t *testing.T) {
	c := &fakeCompleter{match: "Anti-Bribery and Corruption"}
	var out bytes.Buffer
	// Fuzzy input, accept the suggestion, then confirm the start.
	tr := &trainer{gen: course.NewGenerator(c, zap.NewNop()), in: input("gifts from a supplier", "y", ""), out: &out}

	if err := tr.run(ctx, savedProfile(t), "", false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Did you mean Anti-Bribery and Corruption?") {
		t.Errorf("no suggestion shown:\n%s", out.String())
	}
	if len(c.prompts) != 4 {
		t.Fatalf("completer called %d times, want 4 (match + 3)", len(c.prompts))
	}
	if !strings.Contains(c.prompts[1], "training on Anti-Bribery and Corruption") {
		t.Errorf("intro prompt = %q", c.prompts[1])
	}
}

func TestTrain_NoMatchAsksAgain(t *testing.T) {
	c := &fakeCompleter{match: course.NoMatchSentinel}
	var out bytes.Buffer
	tr := &trainer{gen: course.NewGenerator(c, zap.NewNop()), in: input("knitting", "4", "n"), out: &out}

	if err := tr.run(ctx, savedProfile(t), "", false); err != nil {
		t.Fatalf("run: %v", err)
	}
	// One match call; declining the start generates nothing.
	if len(c.prompts) != 1 {
		t.Errorf("completer called %d times, want 1", len(c.prompts))
	}
	if !strings.Contains(out.String(), "Start training on Speaking Up?") {
		t.Errorf("confirmation not shown:\n%s", out.String())
	}
}

func TestTrain_MissingProfile(t *testing.T) {
	c := &fakeCompleter{}
	tr := &trainer{gen: course.NewGenerator(c, zap.NewNop()), in: input(), out: io.Discard}

	err := tr.run(ctx, filepath.Join(t.TempDir(), "absent.json"), "1", true)
	if !errors.Is(err, profile.ErrMissingProfile) {
		t.Fatalf("err = %v, want ErrMissingProfile", err)
	}
	if len(c.prompts) != 0 {
		t.Errorf("completer called %d times without a profile", len(c.prompts))
	}
}

func TestTrain_UnknownTopicFlag(t *testing.T) {
	tr := &trainer{gen: course.NewGenerator(&fakeCompleter{}, zap.NewNop()), in: input(), out: io.Discard}

	err := tr.run(ctx, savedProfile(t), "Cybersecurity", true)
	if !errors.Is(err, course.ErrUnknownTopic) {
		t.Fatalf("err = %v, want ErrUnknownTopic", err)
	}
}

func TestTrain_GenerationFailureStops(t *testing.T) {
	c := &fakeCompleter{failN: 1}
	var out bytes.Buffer
	tr := &trainer{gen: course.NewGenerator(c, zap.NewNop()), in: input(), out: &out}

	err := tr.run(ctx, savedProfile(t), "2", true)
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want *llm.GenerationError", err)
	}
	if strings.Contains(out.String(), "Introduction") {
		t.Error("rendered a section after a failed generation")
	}
}

func TestRemoteTrain(t *testing.T) {
	c := &fakeCompleter{}
	handler := api.NewHandler(api.Deps{
		Builder:     questionnaire.NewBuilder(c, nil),
		Generator:   course.NewGenerator(c, nil),
		ProfilePath: savedProfile(t),
	}, "test-token")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()}
	if !client.healthy(ctx) {
		t.Fatal("server not healthy")
	}

	var out bytes.Buffer
	if err := runRemoteTrain(ctx, client, "Speaking Up", &out); err != nil {
		t.Fatalf("runRemoteTrain: %v", err)
	}
	if !strings.Contains(out.String(), "Generated 3") {
		t.Errorf("question missing:\n%s", out.String())
	}

	client.token = "wrong"
	err := runRemoteTrain(ctx, client, "Speaking Up", io.Discard)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want 401", err)
	}
}

func TestDecodeJSON_ErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.WriteHeader(404)
	rr.WriteString(`{"error":{"message":"missing profile: user_profile.json","type":"missing_profile"}}`)

	var v map[string]any
	err := decodeJSON(rr.Result(), &v)
	if err == nil || err.Error() != "server returned 404: missing profile: user_profile.json" {
		t.Errorf("err = %v", err)
	}
}

func TestNewApp_UsesSeams(t *testing.T) {
	origLoad, origNew := loadConfig, newCompleter
	defer func() { loadConfig, newCompleter = origLoad, origNew }()

	logFile := filepath.Join(t.TempDir(), "complytrain.log")
	loadConfig = func() (config.Config, error) {
		return config.Config{
			LLM: config.LLMConfig{Provider: "ollama"},
			Log: config.LogConfig{Level: "debug", File: logFile},
		}, nil
	}
	fake := &fakeCompleter{}
	newCompleter = func(config.Config, *zap.Logger) (llm.Completer, error) { return fake, nil }

	a, err := newApp(true)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()
	if a.completer != fake {
		t.Error("completer seam not used")
	}
	if !a.logger.Core().Enabled(zap.DebugLevel) {
		t.Error("file logging should keep the configured debug level")
	}
}

func TestProfileShow(t *testing.T) {
	path := savedProfile(t)
	var out bytes.Buffer
	profileShowCmd.SetOut(&out)
	defer profileShowCmd.SetOut(nil)
	if err := profileShowCmd.Flags().Set("path", path); err != nil {
		t.Fatal(err)
	}
	defer profileShowCmd.Flags().Set("path", "")

	if err := profileShowCmd.RunE(profileShowCmd, nil); err != nil {
		t.Fatalf("profile show: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got[profile.KeyDepartment] != "Finance" {
		t.Errorf("profile = %v", got)
	}
}
