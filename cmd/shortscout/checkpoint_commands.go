package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"shortscout/internal/checkpoint"
	"shortscout/internal/config"
	"shortscout/internal/pipeline"
)

// session is the on-disk record of a stepwise run.
type session struct {
	State     checkpoint.State   `json:"state"`
	Payload   checkpoint.Payload `json:"payload"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Step through the pipeline one checkpoint at a time",
	}
	cmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "Session file (default: <data_dir>/session.json)")

	sessionPath := func() (string, error) {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(sessionFlag) == "" {
			return filepath.Join(cfg.Paths.DataDir, "session.json"), nil
		}
		return config.ExpandPath(sessionFlag)
	}

	cmd.AddCommand(newCheckpointAdvanceCommand(ctx, sessionPath))
	cmd.AddCommand(newCheckpointShowCommand(sessionPath))
	cmd.AddCommand(newCheckpointResetCommand(sessionPath))
	return cmd
}

func newCheckpointAdvanceCommand(ctx *commandContext, sessionPath func() (string, error)) *cobra.Command {
	var flags paramFlags
	var to string
	var fresh bool
	var all bool

	cmd := &cobra.Command{
		Use:   "advance [topic]",
		Short: "Run the next pipeline stage and save the result to the session file",
		Long: "Run the next pipeline stage and save the result to the session file.\n\n" +
			"Without a session file (or with --reset) the run starts from scratch and\n" +
			"the topic and run flags apply. Later steps reuse the parameters stored in\n" +
			"the session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sessionPath()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			unlock, err := lockSession(cfg, path)
			if err != nil {
				return err
			}
			defer unlock()

			current := session{State: checkpoint.StateStart}
			if !fresh {
				loaded, found, err := readSession(path)
				if err != nil {
					return err
				}
				if found {
					current = loaded
				}
			}
			if current.State.Terminal() {
				return fmt.Errorf("session %s is complete; pass --reset to start a new run", path)
			}

			runtime, err := ctx.pipelineRuntime(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			target := checkpoint.State(strings.TrimSpace(to))
			for {
				encoded, err := current.Payload.Encode()
				if err != nil {
					return err
				}
				result, err := runtime.Controller.Advance(cmd.Context(), pipeline.Step{
					State:   current.State,
					Payload: encoded,
					Params:  flags.params(args),
					Target:  target,
				})
				if err != nil {
					return err
				}
				target = ""
				current = session{State: result.State, Payload: result.Payload, UpdatedAt: time.Now().UTC()}
				if err := writeSession(path, current); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s -> %s\n", result.State.String(), describePayload(result.Payload))
				if !all || current.State.Terminal() {
					break
				}
			}
			if current.State.Terminal() {
				printSummary(out, current.Payload.Summary)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "Expected next checkpoint; the step fails if it does not follow the current one")
	cmd.Flags().BoolVar(&fresh, "reset", false, "Ignore any existing session and start a new run")
	cmd.Flags().BoolVar(&all, "all", false, "Keep advancing until the run is complete")
	return cmd
}

func newCheckpointShowCommand(sessionPath func() (string, error)) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sessionPath()
			if err != nil {
				return err
			}
			current, found, err := readSession(path)
			if err != nil {
				return err
			}
			if !found {
				current = session{State: checkpoint.StateStart}
			}
			if jsonOut {
				return writeJSON(cmd, current)
			}
			renderSession(cmd.OutOrStdout(), path, current, found)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the session as JSON")
	return cmd
}

func newCheckpointResetCommand(sessionPath func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the session file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sessionPath()
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s cleared\n", path)
			return nil
		},
	}
}

func renderSession(out io.Writer, path string, s session, found bool) {
	fmt.Fprintf(out, "Session: %s\n", path)
	if !found {
		fmt.Fprintln(out, "State:   start (no session saved)")
		return
	}
	fmt.Fprintf(out, "State:   %s\n", s.State)
	if s.Payload.RunID != "" {
		fmt.Fprintf(out, "Run:     %s\n", s.Payload.RunID)
	}
	if s.Payload.Params.Topic != "" {
		p := s.Payload.Params
		fmt.Fprintf(out, "Params:  topic=%q language=%s region=%s days=%d target=%d\n",
			p.Topic, p.Language, p.Region, p.Days, p.Target)
	}
	fmt.Fprintf(out, "Updated: %s\n", s.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Payload: %s\n", describePayload(s.Payload))
	if next, ok := s.State.Next(); ok {
		fmt.Fprintf(out, "Next:    %s\n", next)
	}
}

func describePayload(p checkpoint.Payload) string {
	parts := []string{fmt.Sprintf("%d queries", len(p.Queries))}
	if len(p.Results) > 0 {
		parts = append(parts, fmt.Sprintf("%d shorts", len(p.Results)))
	}
	if p.Summary.Topic != "" {
		parts = append(parts, fmt.Sprintf("%d rows exported", p.Summary.RowsWritten))
	}
	return strings.Join(parts, ", ")
}

// lockSession takes an exclusive lock next to the session file so two
// terminals cannot advance the same run.
func lockSession(cfg *config.Config, path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	lock := flock.New(cfg.SessionLockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s is in use by another shortscout process", path)
	}
	return func() { _ = lock.Unlock() }, nil
}

func readSession(path string) (session, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return session{}, false, nil
	}
	if err != nil {
		return session{}, false, fmt.Errorf("read session: %w", err)
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return session{}, false, fmt.Errorf("parse session %s: %w", path, err)
	}
	if _, ok := checkpoint.ParseState(string(s.State)); !ok {
		return session{}, false, fmt.Errorf("session %s has unknown state %q", path, s.State)
	}
	return s, true, nil
}

func writeSession(path string, s session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
