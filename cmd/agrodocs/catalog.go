package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/spf13/cobra"
)

func newCatalogCmd(rt *env) *cobra.Command {
	var deleted bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect attributes, subtotals, variables and templates",
	}
	cmd.PersistentFlags().BoolVar(&deleted, "deleted", false, "Include deleted entries")

	cmd.AddCommand(&cobra.Command{
		Use:   "attributes",
		Short: "List the entity attributes variables can bind to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return table(cmd.OutOrStdout(), "ATTRIBUTE\tKIND\tDOCUMENTS\tLABEL", func(w io.Writer) {
				for _, info := range attribute.All() {
					docs := make([]string, len(info.Documents))
					for i, d := range info.Documents {
						docs[i] = string(d)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Attribute, info.Kind, strings.Join(docs, ","), info.Label)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "subtotals",
		Short: "List subtotals",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()
			list, err := app.subtotals.List(cmd.Context(), deleted)
			if err != nil {
				return err
			}
			return table(cmd.OutOrStdout(), "CODE\tNAME\tPERCENTAGE\tDISCOUNT\tDELETED", func(w io.Writer) {
				for _, s := range list {
					fmt.Fprintf(w, "%d\t%s\t%d%%\t%t\t%t\n", s.Code, s.Name, s.Percentage, s.IsDiscount, s.Deleted)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "variables",
		Short: "List variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()
			list, err := app.variables.List(cmd.Context(), deleted)
			if err != nil {
				return err
			}
			return table(cmd.OutOrStdout(), "NAME\tATTRIBUTE\tSUBTOTAL\tDELETED", func(w io.Writer) {
				for _, v := range list {
					st := "-"
					if v.Subtotal != nil {
						st = v.Subtotal.Name
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", v.Name, v.Attribute, st, v.Deleted)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "templates",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()
			list, err := app.templates.List(cmd.Context(), deleted)
			if err != nil {
				return err
			}
			return table(cmd.OutOrStdout(), "CODE\tNAME\tVERSION\tFILE\tFIELDS\tDELETED", func(w io.Writer) {
				for _, t := range list {
					fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%t\n", t.Code, t.Name, t.Version, t.File.Extension, len(t.Fields), t.Deleted)
				}
			})
		},
	})
	return cmd
}

func newTemplateCmd(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage templates",
	}

	var fields []string
	importCmd := &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Register a spreadsheet as a template",
		Example: `  agrodocs template import "Factura mensual" factura.xlsx \
    --field 'B5=${CLIENTE}' --field 'A12=${LINEAS}' --field 'G32=${TOTAL}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()

			state, code, err := app.templates.RegisterFromPath(cmd.Context(), args[0], args[1], parsed)
			if err != nil {
				return err
			}
			if !state.OK() {
				return fmt.Errorf("template rejected: %s", state)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "template %d registered\n", code)
			return nil
		},
	}
	importCmd.Flags().StringArrayVar(&fields, "field", nil, "POSITION=EXPRESSION, repeatable; order is evaluation order")
	cmd.AddCommand(importCmd)
	return cmd
}

func parseFields(raw []string) ([]template.Field, error) {
	out := make([]template.Field, 0, len(raw))
	for _, r := range raw {
		pos, expr, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("--field %q: want POSITION=EXPRESSION", r)
		}
		out = append(out, template.Field{Position: strings.TrimSpace(pos), Expression: expr})
	}
	return out, nil
}

func table(out io.Writer, header string, rows func(io.Writer)) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	return w.Flush()
}
