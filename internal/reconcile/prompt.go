package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm asks a yes/no question until it gets an answer. End of input
// counts as no.
func confirm(question string, in *bufio.Reader, out io.Writer) bool {
	for {
		fmt.Fprintf(out, "%s [y/N] ", question)
		line, err := in.ReadString('\n')
		choice := strings.TrimSpace(strings.ToLower(line))
		switch choice {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		}
		if err != nil {
			return false
		}
		fmt.Fprintln(out, "Please answer y or n")
	}
}
