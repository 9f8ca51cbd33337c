package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dshills/suggestcheck/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}

	root := &cobra.Command{
		Use:           "suggestcheck",
		Short:         "Evaluate AI task suggestions against scenario rules",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newRunCmd(cfg))
	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newScenariosCmd(cfg))

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
