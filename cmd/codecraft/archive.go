package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"codecraft/internal/artifact"
	"codecraft/internal/gateway/config"
	"codecraft/internal/gateway/handler/rpc"
)

func newArchiveCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "archive ID",
		Short: "Print the prompt and model output archived for a history id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				files []rpc.ArchiveFile
				err   error
			)
			if server != "" {
				files, err = archiveRemote(cmd.Context(), server, args[0])
			} else {
				files, err = archiveLocal(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printArchive(cmd.OutOrStdout(), files)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "read from a running codecraft server")
	return cmd
}

func archiveRemote(ctx context.Context, baseURL, id string) ([]rpc.ArchiveFile, error) {
	client := rpc.NewRefactorServiceClient(http.DefaultClient, strings.TrimRight(baseURL, "/"))
	out, err := client.GetArchive(ctx, id)
	if err != nil {
		return nil, err
	}
	return out.Files, nil
}

// archiveLocal reads the configured backend directly. Only a shared backend
// (s3) holds anything for a fresh process.
func archiveLocal(ctx context.Context, id string) ([]rpc.ArchiveFile, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := artifact.Open(cfg.Artifact)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("archive is disabled, set ARCHIVE_BACKEND")
	}
	paths, err := store.List(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("request %s: %w", id, artifact.ErrNotFound)
	}
	files := make([]rpc.ArchiveFile, 0, len(paths))
	for _, p := range paths {
		b, err := store.Get(ctx, id, p)
		if err != nil {
			return nil, err
		}
		files = append(files, rpc.ArchiveFile{Path: p, Content: string(b)})
	}
	return files, nil
}

func printArchive(w io.Writer, files []rpc.ArchiveFile) error {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "== %s ==\n%s\n", f.Path, strings.TrimRight(f.Content, "\n"))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
