package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "coolc",
	Short: "A compiler for a small class-based object-oriented language",
	Long: `coolc compiles programs in a small class-based, statically typed,
object-oriented language down to x86-64 assembly.

Each stage of the pipeline (parse, check, codegen) reads one interchange
file and writes the next: a pre-lexed token stream in, an AST file out of
the parser, an annotated type file out of the checker, and an assembly
file out of the code generator. "build" chains the three in-process for
convenience.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Diagnostics are printed by the
// subcommand that raised them (§7's exact "ERROR: ..." format), not by
// cobra's default error handler, so errors here are returned only to
// drive the process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}
