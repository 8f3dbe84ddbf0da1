package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"docchat-backend/internal/extraction"
)

func newExtractCmd() *cobra.Command {
	limits := extraction.DefaultLimits()
	var stats bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract text from a local file the way the pipeline does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			content, err := extraction.NewExtractor(limits).Extract(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				var unproc *extraction.UnprocessableError
				if errors.As(err, &unproc) {
					return fmt.Errorf("unprocessable: %s", unproc.Reason)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), content)
			if stats {
				fmt.Fprintf(cmd.ErrOrStderr(), "extracted %s from %s\n",
					units.HumanSize(float64(len(content))),
					units.HumanSize(float64(len(data))))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limits.MaxPages, "max-pages", limits.MaxPages, "reject PDFs with more pages")
	cmd.Flags().IntVar(&limits.ScanPages, "scan-pages", limits.ScanPages, "read at most this many PDF pages")
	cmd.Flags().DurationVar(&limits.Timeout, "timeout", limits.Timeout, "abort extraction after this long")
	cmd.Flags().BoolVar(&stats, "stats", false, "print sizes to stderr")
	return cmd
}
