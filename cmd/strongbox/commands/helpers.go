package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// readInput resolves a secret value from, in order of precedence, the
// --value flag, the --file flag ("-" for stdin), or stdin.
func readInput(cmd *cobra.Command, value, file string) ([]byte, error) {
	if value != "" {
		return []byte(value), nil
	}
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// writeOutput sends raw bytes to outfile, or to stdout when outfile is
// empty or "-".
func writeOutput(cmd *cobra.Command, outfile string, data []byte) error {
	if outfile != "" && outfile != "-" {
		if err := os.WriteFile(outfile, data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", outfile, err)
		}
		return nil
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}
