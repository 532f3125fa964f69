package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codecraft/internal/catalog"
	"codecraft/internal/gateway/app"
	"codecraft/internal/gateway/config"
	"codecraft/internal/gateway/handler/rpc"
	"codecraft/internal/history"
	"codecraft/internal/llm"
	"codecraft/internal/orchestrator"
	"codecraft/internal/refactor"
)

type refactorOptions struct {
	file     string
	language string
	focus    string
	asJSON   bool
	server   string
}

func newRefactorCmd(root *rootOptions) *cobra.Command {
	opts := &refactorOptions{}
	cmd := &cobra.Command{
		Use:   "refactor",
		Short: "Refactor one file and print the result",
		Example: `  codecraft refactor --file main.js --focus "Bug Fixing"
  cat util.py | codecraft refactor --file - --language Python --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := readSource(cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}
			focus, err := refactor.ParseFocus(opts.focus)
			if err != nil {
				return err
			}
			req := refactor.Request{Code: code, Language: opts.language, Focus: focus}

			var res refactor.Result
			if opts.server != "" {
				res, err = refactorRemote(cmd.Context(), opts.server, req)
			} else {
				res, err = refactorLocal(cmd.Context(), root.logger, req)
			}
			if err != nil {
				return errors.New(orchestrator.Message(err))
			}
			return printResult(cmd.OutOrStdout(), res, opts.asJSON)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "-", "source file, - for stdin")
	f.StringVar(&opts.language, "language", catalog.Default().DefaultLanguage, "language label")
	f.StringVar(&opts.focus, "focus", refactor.FocusReadability.Label(), "optimization focus")
	f.BoolVar(&opts.asJSON, "json", false, "print the raw result as JSON")
	f.StringVar(&opts.server, "server", "", "call a running codecraft server instead of the model directly")
	return cmd
}

func readSource(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(b), nil
}

func refactorLocal(ctx context.Context, log *zap.Logger, req refactor.Request) (refactor.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return refactor.Result{}, err
	}
	svcs, err := app.NewServices(cfg, log)
	if err != nil {
		return refactor.Result{}, err
	}
	defer svcs.Close()

	ctx = llm.WithRequestID(ctx, uuid.NewString())
	res, err := svcs.Refactor.Refactor(ctx, req)
	if err != nil {
		return refactor.Result{}, err
	}
	if err := (history.Recorder{Store: svcs.History}).Record(ctx, req, res); err != nil {
		log.Warn("Failed to record result", zap.Error(err))
	}
	return res, nil
}

func refactorRemote(ctx context.Context, baseURL string, req refactor.Request) (refactor.Result, error) {
	client := rpc.NewRefactorServiceClient(http.DefaultClient, strings.TrimRight(baseURL, "/"))
	out, err := client.Refactor(ctx, &rpc.RefactorRequest{
		Code:     req.Code,
		Language: req.Language,
		Focus:    req.Focus.String(),
	})
	if err != nil {
		return refactor.Result{}, err
	}
	return out.Result, nil
}

func printResult(w io.Writer, res refactor.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	var b strings.Builder
	b.WriteString(res.ImprovedCode)
	b.WriteString("\n\nSummary\n")
	b.WriteString(res.Explanation)
	b.WriteString("\n\nKey Changes\n")
	for _, c := range res.KeyChanges {
		b.WriteString("  - " + c + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
