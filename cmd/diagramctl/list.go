package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the command names the engine handles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()
			names := make([]string, 0)
			for _, n := range s.engine.Commands() {
				names = append(names, string(n))
			}
			slices.Sort(names)
			return printLines(cmd.OutOrStdout(), names)
		},
	}
}

func newMiddlewaresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "middlewares",
		Short: "List middlewares in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()
			return printLines(cmd.OutOrStdout(), s.engine.Middlewares())
		},
	}
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
