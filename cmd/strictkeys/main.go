package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/calumari/strictkeys"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError carries a process exit code out of a cobra RunE. A nil err means
// the outcome was already reported on stdout.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func fatal(err error) error {
	return &exitError{code: strictkeys.ExitError, err: err}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return strictkeys.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "strictkeys: %v\n", ee.err)
		}
		return ee.code
	}
	// cobra argument and flag errors
	fmt.Fprintf(stderr, "strictkeys: %v\nRun 'strictkeys --help' for usage.\n", err)
	return strictkeys.ExitError
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
