package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TerminalConfirmer prompts the operator on the terminal before any
// mutating action. Anything other than y/yes declines.
type TerminalConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalConfirmer creates a confirmer reading from in (normally
// os.Stdin) and prompting on out
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: in, out: out}
}

// Confirm presents the prompt and reads the operator's answer
func (c *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)

	reader := bufio.NewReader(c.in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// AutoConfirmer accepts every prompt. Used for -yes runs and scheduled
// rebuilds, where no operator is present.
type AutoConfirmer struct{}

// Confirm always reports true
func (c *AutoConfirmer) Confirm(prompt string) (bool, error) {
	return true, nil
}
