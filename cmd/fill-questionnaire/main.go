// Command fill-questionnaire walks a participant through a hackathon
// questionnaire in the terminal and submits the answers to the backend.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/hackmate/hackathon-console/internal/backend"
	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/logger"
	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/questionnaire"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	hackathonID := flag.String("hackathon", "", "hackathon id (required)")
	participantID := flag.String("participant", "", "participant id (required)")
	backendURL := flag.String("backend", cfg.BackendAPIURL, "hackathon backend base URL")
	flag.Parse()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *hackathonID == "" || *participantID == "" {
		fmt.Fprintln(os.Stderr, "Error: -hackathon and -participant are required")
		flag.Usage()
		os.Exit(2)
	}

	// ─── API Key ───────────────────────────────────────────────────────
	apiKey := cfg.BackendAPIKey
	if apiKey == "" && term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Enter Backend API Key: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Println("Error reading API key")
			return
		}
		apiKey = strings.TrimSpace(string(raw))
	}

	client := backend.NewClient(*backendURL, apiKey, cfg.BackendTimeout, log)
	ctx := context.Background()

	questions, err := client.ListQuestions(ctx, *hackathonID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load questionnaire")
	}

	e, err := questionnaire.New(questions, questionnaire.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("Questionnaire is malformed")
	}

	w := &wizard{
		engine: e,
		out:    os.Stdout,
		submit: func(ctx context.Context, rows []model.SubmissionRow) error {
			return client.SubmitResponses(ctx, *hackathonID, *participantID, rows)
		},
	}
	w.run(ctx, os.Stdin)
}

// wizard is the line-oriented driver of the answer engine.
type wizard struct {
	engine *questionnaire.Engine
	out    io.Writer
	submit questionnaire.SubmitFunc
}

const help = `Commands:
  n               next question
  p               previous question
  g <number>      go to question
  a <json>        answer the current question, e.g. a "Ada" or a 42
  t <option id>   toggle an option of the current question
  s               submit
  q               quit`

func (w *wizard) run(ctx context.Context, in io.Reader) {
	fmt.Fprintln(w.out, help)
	w.render()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(w.out, "> ")
		if !scanner.Scan() {
			return
		}
		done, err := w.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintln(w.out, "Error:", err)
		}
		if done {
			return
		}
		w.render()
	}
}

// exec applies one command line. It reports whether the wizard is finished.
func (w *wizard) exec(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	e := w.engine

	switch cmd {
	case "":
		return false, nil
	case "n":
		e.Next()
	case "p":
		e.Prev()
	case "g":
		var n int
		if _, err := fmt.Sscan(arg, &n); err != nil {
			return false, fmt.Errorf("g needs a question number")
		}
		e.GoTo(n - 1)
	case "a", "t":
		q, ok := e.Current()
		if !ok {
			return false, fmt.Errorf("no question selected")
		}
		if cmd == "t" {
			return false, e.ToggleOption(q.ID, arg)
		}
		return false, e.SetAnswerJSON(q.ID, []byte(arg))
	case "s":
		if err := e.Submit(ctx, w.submit); err != nil {
			return false, err
		}
		fmt.Fprintln(w.out, e.Message())
		return true, nil
	case "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func (w *wizard) render() {
	v := w.engine.View()
	if v.Question == nil {
		fmt.Fprintln(w.out, "This questionnaire has no questions.")
		return
	}

	q := v.Question
	required := ""
	if q.Required {
		required = " *"
	}
	fmt.Fprintf(w.out, "\n[%d/%d] %s%s\n", v.Index+1, v.Total, q.Label, required)
	if q.Description != "" {
		fmt.Fprintln(w.out, q.Description)
	}
	for _, o := range q.Options {
		mark := " "
		if o.Selected {
			mark = "x"
		}
		fmt.Fprintf(w.out, "  [%s] %s  (%s)\n", mark, o.Label, o.ID)
	}
	if q.Answered && len(q.Options) == 0 {
		raw, _ := json.Marshal(q.Value)
		fmt.Fprintf(w.out, "  current: %s\n", raw)
	}
	if q.Error != nil {
		fmt.Fprintln(w.out, "  !", q.Error.Message)
	}
	fmt.Fprintf(w.out, "Progress: %d/%d answered, %d%%\n", v.Progress.Answered, v.Progress.Total, v.Progress.Percent)
	if v.Message != "" {
		fmt.Fprintln(w.out, v.Message)
	}
}
