package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptYesNoWithReader prompts for a yes/no answer, asking again on invalid
// input. End of input counts as no.
func PromptYesNoWithReader(prompt string, reader io.Reader, writer io.Writer) bool {
	scanner := bufio.NewScanner(reader)

	for {
		_, _ = fmt.Fprintf(writer, "%s (y/n): ", prompt)
		if !scanner.Scan() {
			return false
		}

		input := strings.TrimSpace(strings.ToLower(scanner.Text()))

		switch input {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// ReadStringWithReader reads one line from a reader. The line is returned
// as typed; callers decide whether to trim.
func ReadStringWithReader(reader io.Reader) (string, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no input")
	}

	return scanner.Text(), nil
}
