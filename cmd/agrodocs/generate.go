package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/services"
	"github.com/spf13/cobra"
)

func newGenerateCmd(rt *env) *cobra.Command {
	var (
		templateCode int64
		out          string
	)
	cmd := &cobra.Command{
		Use:   "generate invoice|delivery-note CODE",
		Short: "Generate one document from a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := services.ParseKind(args[0])
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()

			gd, err := app.generator.Generate(cmd.Context(), services.Request{Kind: kind, DocumentCode: args[1], TemplateCode: templateCode})
			if err != nil {
				return err
			}
			if out != "" {
				content, err := app.generator.Content(cmd.Context(), gd)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, content, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", gd.ID, gd.DocumentCode, gd.ArchiveKey)
			return nil
		},
	}
	cmd.Flags().Int64Var(&templateCode, "template", 0, "Template code")
	cmd.Flags().StringVar(&out, "out", "", "Also write the generated file here")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

const dateLayout = "2006-01-02"

func newBatchCmd(rt *env) *cobra.Command {
	var (
		from, to     string
		templateCode int64
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate every invoice dated within a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(dateLayout, from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := time.Parse(dateLayout, to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			// inclusive of the whole last day
			end = end.Add(24*time.Hour - time.Nanosecond)

			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()

			outcomes, err := app.batch.GenerateInvoices(cmd.Context(), start, end, templateCode)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INVOICE\tRESULT")
			failed := 0
			for _, o := range outcomes {
				result := "ok"
				if o.Err != nil {
					result = o.Error
					failed++
				} else if o.Document != nil {
					result = o.Document.ArchiveKey
				}
				fmt.Fprintf(w, "%s\t%s\n", o.DocumentCode, result)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d %s documents failed", failed, len(outcomes), attribute.DocumentInvoice)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First invoice date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last invoice date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&templateCode, "template", 0, "Template code")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
