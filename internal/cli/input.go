package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/valet/internal/secret"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal without echo and moves it
// straight into a secret.String. The terminal buffer is wiped by FromBytes.
func GetPassword(w io.Writer) (*secret.String, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret.FromBytes(pw), nil
}

// GetAttributes reads "name=value" lines until an empty line and returns
// them as a map. A line without "=" or a repeated name is an error.
func GetAttributes(reader *bufio.Reader, w io.Writer) (map[string]string, error) {
	if _, err := fmt.Fprint(w, "Enter attributes as name=value (empty line to finish)\n"); err != nil {
		return nil, err
	}

	attrs := make(map[string]string)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid attribute %q, want name=value", line)
		}
		if _, dup := attrs[name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", name)
		}
		attrs[name] = strings.TrimSpace(value)
		if err != nil {
			break
		}
	}
	return attrs, nil
}
