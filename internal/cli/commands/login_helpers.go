package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// resolveCredentials fills missing values from the environment and prompts
// for the password when stdin is a terminal
func resolveCredentials(out io.Writer, email, password string) (string, string, error) {
	if email == "" {
		email = os.Getenv(envEmail)
	}
	if password == "" {
		password = os.Getenv(envPassword)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", fmt.Errorf("email is required (use --email flag or %s env var)", envEmail)
	}

	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return "", "", fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", envPassword)
		}

		fmt.Fprint(out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(out)
	}

	return email, password, nil
}
