package cmd

import (
	"github.com/mekotech/coolc/internal/astfile"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/semantic"
	"github.com/mekotech/coolc/internal/typefile"
	"github.com/spf13/cobra"
)

var checkDumpTypes bool

var checkCmd = &cobra.Command{
	Use:   "check <in.cl-ast> <out.cl-type>",
	Short: "Build the class table and type-check an AST (§4.3-§4.5, §6.3)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkDumpTypes, "dump-types", false, "print the annotated AST to stdout")
}

func runCheck(_ *cobra.Command, args []string) error {
	in, err := openFile(args[0])
	if err != nil {
		return report(err)
	}
	defer in.Close()

	prog, err := astfile.Read(in)
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

	if checkDumpTypes {
		dumpProgram(prog)
	}

	out, err := createFile(args[1])
	if err != nil {
		return report(err)
	}
	defer out.Close()

	if err := typefile.Write(out, prog, tab); err != nil {
		return report(err)
	}
	return nil
}
