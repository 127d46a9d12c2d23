package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/logging"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/services"
)

type renderOptions struct {
	TermsPath string
	OutPath   string
	TextPath  string
}

// newRenderCommand renders a lease offline from the local template. It needs no
// database, object store or network access.
func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a lease PDF from a terms file using the local template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.TermsPath, "terms", "", "JSON file with the lease terms")
	cmd.Flags().StringVar(&opts.OutPath, "out", "lease.pdf", "output PDF path")
	cmd.Flags().StringVar(&opts.TextPath, "text", "", "also write the agreement text to this path")
	_ = cmd.MarkFlagRequired("terms")

	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	raw, err := os.ReadFile(opts.TermsPath)
	if err != nil {
		return fmt.Errorf("read terms: %w", err)
	}

	var input models.LeaseTermsInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("parse terms: %w", err)
	}
	terms, err := input.Terms()
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			for field, reason := range verr.Details() {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, reason)
			}
		}
		return err
	}

	logger, err := logging.New("warn", "console", serviceName)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	text := services.FallbackLease(terms)
	doc, err := services.NewDocumentRenderer(logger).Render(text, models.MetadataFor(terms))
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.OutPath, doc.Data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if opts.TextPath != "" {
		if err := os.WriteFile(opts.TextPath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages, %d bytes)\n", opts.OutPath, doc.PageCount, len(doc.Data))
	return nil
}
