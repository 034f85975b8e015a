package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-apiclient/internal/app"
	"github.com/samvad-hq/samvad-apiclient/internal/config"
	"github.com/samvad-hq/samvad-apiclient/internal/logger"
	"github.com/spf13/cobra"
)

var errCallsFailed = errors.New("one or more calls failed")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errCallsFailed) {
			fmt.Fprintf(os.Stderr, "apicall: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runner *app.Runner
	err := newRootCmd(os.Stdout, &runner).ExecuteContext(ctx)
	if runner != nil {
		err = errors.Join(err, runner.Close())
	}
	_ = logger.Close()
	return err
}

func newRootCmd(out io.Writer, runner **app.Runner) *cobra.Command {
	root := &cobra.Command{
		Use:           "apicall",
		Short:         "Call configured HTTP endpoints and record the outcomes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if _, err := logger.Init(cfg); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.DebugObj("apicall starting", "config", cfg)

			r, err := app.NewRunner(cmd.Context(), cfg, logger.Default())
			if err != nil {
				logger.ErrorObj("failed to initialize runner", "error", err.Error())
				return err
			}
			*runner = r
			return nil
		},
	}

	root.AddCommand(
		newCallCmd(out, runner),
		newListCmd(out, runner),
		newHistoryCmd(out, runner),
	)
	return root
}

type callLine struct {
	Endpoint   string `json:"endpoint"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Result     any    `json:"result,omitempty"`
	Delivered  int    `json:"delivered,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func newCallCmd(out io.Writer, runner **app.Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "call [endpoint-id...]",
		Short: "Call endpoints by id (all endpoints when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := (*runner).Call(cmd.Context(), args...)
			if err != nil && len(outcomes) == 0 {
				return err
			}

			enc := json.NewEncoder(out)
			failed := false
			for _, o := range outcomes {
				line := callLine{
					Endpoint:   o.EndpointID,
					OK:         o.Err == nil,
					StatusCode: o.StatusCode,
					Result:     o.Value,
					Delivered:  o.Delivered,
					DurationMs: o.Entry.DurationMs,
				}
				if o.Err != nil {
					failed = true
					line.Kind = o.Entry.Kind
					line.Error = o.Err.Error()
				}
				if encErr := enc.Encode(line); encErr != nil {
					return encErr
				}
			}
			if err != nil {
				return err
			}
			if failed {
				return errCallsFailed
			}
			return nil
		},
	}
}

func newListCmd(out io.Writer, runner **app.Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured endpoints",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			for _, d := range (*runner).Endpoints() {
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s%s\t%s\n", d.ID, d.Method, d.BaseURL, d.Path, d.Decoder); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newHistoryCmd(out io.Writer, runner **app.Runner) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent calls from the journal, newest first",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			entries, err := (*runner).History(limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	return cmd
}
