package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/program"
)

// ProgramResult describes a program written to a file.
type ProgramResult struct {
	ServiceID string `json:"service_id"`
	Encoding  string `json:"encoding"`
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
	Digest    string `json:"digest"`
}

type programOptions struct {
	encoding string
	output   string
}

// NewProgramCommand creates the program command.
func NewProgramCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &programOptions{}

	cmd := &cobra.Command{
		Use:   "program <service-id>",
		Short: "Render the order of service",
		Long: `Render the order of service for one service as text, HTML or PDF.

Without --output the document is written to standard output. PDF export
drives a headless Chromium and requires --output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.encoding, "as", "text", "document encoding (text|html|pdf)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the document to this file")

	return cmd
}

func runProgram(rootOpts *RootOptions, opts *programOptions, serviceID string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	encoding := strings.ToLower(strings.TrimSpace(opts.encoding))
	switch encoding {
	case "text", "html":
	case "pdf":
		if opts.output == "" {
			return reportUsage(formatter, "pdf output requires --output")
		}
	default:
		return reportUsage(formatter, fmt.Sprintf("unknown encoding %q: must be one of text, html, pdf", opts.encoding))
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer a.Close()

	resolved, err := a.scheduling.ResolveService(ctx, serviceID)
	if err != nil {
		return reportError(formatter, "failed to load service", err)
	}
	doc := program.Render(resolved, a.texts)

	var buf bytes.Buffer
	switch encoding {
	case "text":
		err = program.EncodeText(&buf, doc)
	case "html":
		err = program.EncodeHTML(&buf, doc)
	case "pdf":
		var pdf []byte
		pdf, err = program.PDFExporter{}.Export(ctx, doc)
		buf.Write(pdf)
	}
	if err != nil {
		return reportError(formatter, "failed to render program", err)
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return reportError(formatter, "failed to write program", err)
	}
	digest, err := program.Digest(doc)
	if err != nil {
		return reportError(formatter, "failed to digest program", err)
	}

	result := ProgramResult{
		ServiceID: serviceID,
		Encoding:  encoding,
		Path:      opts.output,
		Bytes:     buf.Len(),
		Digest:    digest,
	}
	return formatter.Success(result, fmt.Sprintf("Wrote %s program (%d bytes) to %s\n", encoding, result.Bytes, result.Path))
}
