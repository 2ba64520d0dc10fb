package cmd

import (
	"fmt"
	"os"
)

// report prints err to stderr exactly as produced (a *diag.Error already
// formats itself as "ERROR: <line>: <Phase>: <message>", per §7; any other
// error, e.g. a file-not-found, prints as-is) and returns it so the caller's
// RunE propagates a non-zero exit without cobra re-printing it (root.go sets
// SilenceErrors).
func report(err error) error {
	fmt.Fprintln(os.Stderr, err)
	return err
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("coolc: cannot create %s: %w", path, err)
	}
	return f, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("coolc: cannot open %s: %w", path, err)
	}
	return f, nil
}
