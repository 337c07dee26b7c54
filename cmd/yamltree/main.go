// Package main provides the yamltree CLI: parse YAML into the tree
// model, optionally resolve anchors and aliases, and re-emit it as
// canonical block YAML or JSON.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/flier/yamltree/pkg/yamltree"
	"github.com/flier/yamltree/pkg/yamltree/emit"
	"github.com/flier/yamltree/pkg/yamltree/ingest"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yamltree",
		Short: "YAML document tree toolkit",
		Long:  `yamltree parses YAML into an arena-backed document tree, resolves anchors, aliases, and merge keys, and re-emits block YAML or JSON.`,
	}

	rootCmd.AddCommand(formatCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(emitCmd())
	rootCmd.AddCommand(tagCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(args[0])
}

// run executes f, converting a tree fault (the default hook panics) into
// an ordinary error for cobra to report.
func run(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if fault, ok := r.(yamltree.Fault); ok {
				err = fault
				return
			}

			panic(r)
		}
	}()

	return f()
}

func writeOutput(path string, inPlace bool, args []string, out []byte) error {
	if inPlace && len(args) > 0 && args[0] != "-" {
		return os.WriteFile(args[0], out, 0o644)
	}

	if path != "" {
		return os.WriteFile(path, out, 0o644)
	}

	_, err := os.Stdout.Write(out)

	return err
}

func formatCmd() *cobra.Command {
	var (
		output  string
		inPlace bool
	)

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Reformat YAML as canonical block style",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func() error {
				src, err := readInput(args)
				if err != nil {
					return err
				}

				t, err := ingest.Parse(src)
				if err != nil {
					return err
				}

				out, err := emit.YAMLBytes(t, t.RootID())
				if err != nil {
					return err
				}

				return writeOutput(output, inPlace, args, out)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write result to this file instead of stdout")
	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "write result back to the source file")

	return cmd
}

func resolveCmd() *cobra.Command {
	var (
		output  string
		inPlace bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Resolve anchors, aliases, and merge keys, then re-emit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func() error {
				src, err := readInput(args)
				if err != nil {
					return err
				}

				t, err := ingest.Parse(src)
				if err != nil {
					return err
				}

				if err := t.Resolve(); err != nil {
					return err
				}

				out, err := emit.YAMLBytes(t, t.RootID())
				if err != nil {
					return err
				}

				return writeOutput(output, inPlace, args, out)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write result to this file instead of stdout")
	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "write result back to the source file")

	return cmd
}

func emitCmd() *cobra.Command {
	var (
		format  string
		resolve bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "emit [file]",
		Short: "Emit YAML or JSON from parsed input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func() error {
				src, err := readInput(args)
				if err != nil {
					return err
				}

				t, err := ingest.Parse(src)
				if err != nil {
					return err
				}

				if resolve {
					if err := t.Resolve(); err != nil {
						return err
					}
				}

				var out []byte

				switch format {
				case "yaml":
					out, err = emit.YAMLBytes(t, t.RootID())
				case "json":
					out, err = emit.JSONBytes(t, t.RootID())
				default:
					return fmt.Errorf("unknown format %q (want yaml or json)", format)
				}

				if err != nil {
					return err
				}

				return writeOutput(output, false, args, out)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "resolve anchors and aliases before emitting")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write result to this file instead of stdout")

	return cmd
}

func tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-tag <tag>",
		Short: "Print the canonical form of a YAML tag",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			fmt.Println(yamltree.NormalizeTag(args[0]))
		},
	}
}
