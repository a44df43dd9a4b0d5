package cmd

// confirmPrompter interface for interactive yes/no confirmation
type confirmPrompter interface {
	Confirm(prompt string) (bool, error)
}
