// Command coolc drives the compiler's four interchange-format stages
// (parse, check, codegen, and the convenience build pipeline) as
// subcommands of one binary (§0, §6.5).
package main

import (
	"os"

	"github.com/mekotech/coolc/cmd/coolc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
