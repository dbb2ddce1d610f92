package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/tree"
)

func diffCmd() *cobra.Command {
	var (
		asJSON  bool
		keyAttr string
		result  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old.html> <new.html>",
		Short: "Print the mutations that turn one markup file into another",
		Long: `Compile both files into trees and reconcile the first into the
second, printing every mutation in the order it is applied.

Examples:
  weft diff before.html after.html
  weft diff before.html after.html --json
  weft diff a.html b.html --key data-id --result`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := markup.Options{KeyAttribute: keyAttr}
			old, err := compileFile(args[0], opts)
			if err != nil {
				return err
			}
			next, err := compileFile(args[1], opts)
			if err != nil {
				return err
			}
			return runDiff(cmd.OutOrStdout(), old, next, diffOptions{
				json:   asJSON,
				result: result,
				markup: opts,
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print mutations as JSON")
	cmd.Flags().StringVar(&keyAttr, "key", markup.DefaultKeyAttribute, "Attribute used as the reconciliation key")
	cmd.Flags().BoolVar(&result, "result", false, "Print the patched markup after the mutations")

	return cmd
}

type diffOptions struct {
	json   bool
	result bool
	markup markup.Options
}

// mutationJSON is the --json form of a mutation.
type mutationJSON struct {
	Op     string `json:"op"`
	Detail string `json:"detail"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
	Old    string `json:"old,omitempty"`
	Index  int    `json:"index"`
	From   int    `json:"from,omitempty"`
	Key    string `json:"key,omitempty"`
}

func compileFile(path string, opts markup.Options) (*tree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := markup.CompileReader(f, opts)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return root, nil
}

// runDiff patches old into next and writes the mutations to w.
func runDiff(w io.Writer, old, next *tree.Node, opts diffOptions) error {
	rec := &reconcile.Recorder{}
	live := reconcile.Patch(old, next, rec)

	if opts.json {
		out := make([]mutationJSON, 0, len(rec.Mutations))
		for _, m := range rec.Mutations {
			out = append(out, mutationJSON{
				Op:     m.Op.String(),
				Detail: m.String(),
				Name:   m.Name,
				Value:  m.Value,
				Old:    m.Old,
				Index:  m.Index,
				From:   m.From,
				Key:    m.Key,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		for i, m := range rec.Mutations {
			fmt.Fprintf(w, "%3d  %s\n", i+1, m)
		}
		fmt.Fprintf(w, "%d mutations\n", len(rec.Mutations))
	}

	if opts.result {
		html, err := markup.RenderChildren(live, opts.markup)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, html)
	}
	return nil
}
