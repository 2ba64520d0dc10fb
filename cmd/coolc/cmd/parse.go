package cmd

import (
	"github.com/mekotech/coolc/internal/astfile"
	"github.com/mekotech/coolc/internal/parser"
	"github.com/mekotech/coolc/internal/token"
	"github.com/spf13/cobra"
)

var parseDumpAST bool

var parseCmd = &cobra.Command{
	Use:   "parse <in.cl-lex> <out.cl-ast>",
	Short: "Parse a token stream into a serialized AST (§4.1, §6.1, §6.2)",
	Args:  cobra.ExactArgs(2),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseDumpAST, "dump-ast", false, "print the parsed AST to stdout")
}

func runParse(_ *cobra.Command, args []string) error {
	in, err := openFile(args[0])
	if err != nil {
		return report(err)
	}
	defer in.Close()

	toks, err := token.NewReader(in).ReadAll()
	if err != nil {
		return report(err)
	}

	prog, err := parser.Parse(toks)
	if err != nil {
		return report(err)
	}

	if parseDumpAST {
		dumpProgram(prog)
	}

	out, err := createFile(args[1])
	if err != nil {
		return report(err)
	}
	defer out.Close()

	if err := astfile.Write(out, prog); err != nil {
		return report(err)
	}
	return nil
}
