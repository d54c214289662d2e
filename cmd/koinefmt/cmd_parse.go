package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ava12/koine"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var startRule string

	cmd := &cobra.Command{
		Use:   "parse <grammar-file> <source-file>",
		Short: "Parse a source file against a grammar file and print its shaped AST as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammarPath, sourcePath := args[0], args[1]

			g, err := koine.CompileGrammarFromFile(grammarPath, koine.Options{})
			if err != nil {
				return fmt.Errorf("compiling %s: %s", grammarPath, err.Message)
			}

			source, rerr := os.ReadFile(sourcePath)
			if rerr != nil {
				return fmt.Errorf("reading %s: %w", sourcePath, rerr)
			}

			result := koine.Parse(g, string(source), koine.ParseOptions{StartRule: startRule})
			if result.Status != "success" {
				return fmt.Errorf("%s:%d:%d: %s", sourcePath, result.Line, result.Col, result.Message)
			}

			out, merr := json.MarshalIndent(result.Ast, "", "  ")
			if merr != nil {
				return fmt.Errorf("encoding ast: %w", merr)
			}
			_, werr := os.Stdout.Write(append(out, '\n'))
			return werr
		},
	}

	cmd.Flags().StringVar(&startRule, "start-rule", "", "override the grammar's own start_rule")

	return cmd
}
