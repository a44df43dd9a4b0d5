// Package ui provides the interactive prompts of the offboard CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/Iilun/survey/v2"
)

// Prompter asks yes/no questions on the terminal. It satisfies
// migrate.Confirmer.
type Prompter struct{}

// Confirm presents a yes/no prompt defaulting to no. Destructive steps call
// this before mutating anything.
func (Prompter) Confirm(prompt string) (bool, error) {
	if !IsInteractive() {
		return false, ErrNotInteractive
	}

	var confirmed bool
	q := &survey.Confirm{
		Message: prompt,
		Default: false,
	}

	if err := survey.AskOne(q, &confirmed, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}

	return confirmed, nil
}
