package main

import (
	"fmt"
	"os"

	"github.com/ava12/koine"
	"github.com/ava12/koine/koineyaml"
	"github.com/spf13/cobra"
)

func newTranspileCmd() *cobra.Command {
	var startRule string

	cmd := &cobra.Command{
		Use:   "transpile <grammar-file> <transpiler-file> <source-file>",
		Short: "Parse a source file and render it through a transpiler grammar file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammarPath, transpilerPath, sourcePath := args[0], args[1], args[2]

			g, err := koine.CompileGrammarFromFile(grammarPath, koine.Options{})
			if err != nil {
				return fmt.Errorf("compiling %s: %s", grammarPath, err.Message)
			}

			transpilerRaw, lerr := koineyaml.LoadFile(transpilerPath)
			if lerr != nil {
				return fmt.Errorf("loading %s: %w", transpilerPath, lerr)
			}
			tg, terr := koine.CompileTranspiler(transpilerRaw)
			if terr != nil {
				return fmt.Errorf("compiling %s: %s", transpilerPath, terr.Message)
			}

			source, rerr := os.ReadFile(sourcePath)
			if rerr != nil {
				return fmt.Errorf("reading %s: %w", sourcePath, rerr)
			}

			result := koine.Parse(g, string(source), koine.ParseOptions{StartRule: startRule})
			if result.Status != "success" {
				return fmt.Errorf("%s:%d:%d: %s", sourcePath, result.Line, result.Col, result.Message)
			}

			out, xerr := koine.Transpile(tg, result.Ast)
			if xerr != nil {
				return fmt.Errorf("transpiling %s: %s", sourcePath, xerr.Message)
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&startRule, "start-rule", "", "override the grammar's own start_rule")

	return cmd
}
