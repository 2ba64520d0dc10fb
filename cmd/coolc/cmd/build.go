package cmd

import (
	"bytes"

	"github.com/mekotech/coolc/internal/astfile"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/codegen"
	"github.com/mekotech/coolc/internal/parser"
	"github.com/mekotech/coolc/internal/semantic"
	"github.com/mekotech/coolc/internal/token"
	"github.com/mekotech/coolc/internal/typefile"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build <in.cl-lex> <out.s>",
	Short: "Run parse, check, and codegen in one process (§0)",
	Long: `build chains the parse, check, and codegen stages without writing
the intermediate .cl-ast/.cl-type files to disk. It is additive to the
per-stage commands, not a replacement for their file-based contracts
(§6): run the stages separately to inspect or hand-edit an intermediate
form.`,
	Args: cobra.ExactArgs(2),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(_ *cobra.Command, args []string) error {
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

	// Round-trip through the AST and annotated-type interchange forms even
	// in-process, so `build` exercises exactly the same Write/Read boundary
	// the file-based stages do (§8's Round-trip property covers both).
	var astBuf, typeBuf bytes.Buffer
	if err := astfile.Write(&astBuf, prog); err != nil {
		return report(err)
	}
	prog, err = astfile.Read(&astBuf)
	if err != nil {
		return report(err)
	}

	tab, err := classtable.Build(prog)
	if err != nil {
		return report(err)
	}
	if err := semantic.Check(tab); err != nil {
		return report(err)
	}
	if err := typefile.Write(&typeBuf, prog, tab); err != nil {
		return report(err)
	}
	parsed, err := typefile.Read(&typeBuf)
	if err != nil {
		return report(err)
	}

	out, err := createFile(args[1])
	if err != nil {
		return report(err)
	}
	defer out.Close()

	if err := codegen.Generate(out, parsed); err != nil {
		return report(err)
	}
	return nil
}
