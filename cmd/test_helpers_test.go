package cmd

import (
	"bytes"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with the given args and returns its
// combined output.
func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
