// koinefmt is a console utility driving a koine grammar against a
// source file: parse prints the shaped AST, transpile renders it
// through a transpiler grammar. Usage is
//
//	koinefmt parse <grammar-file> <source-file>
//	koinefmt transpile <grammar-file> <transpiler-file> <source-file>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "koinefmt",
		Short: "Parse and transpile source files against a koine grammar",
	}

	root.AddCommand(newParseCmd(), newTranspileCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
