package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tidy/internal/app"
	"tidy/internal/auth"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// promptPassword returns TIDY_PASSWORD if set. Otherwise it prompts on the
// terminal without echo, or reads one line when stdin is not a terminal.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if pw, ok := os.LookupEnv("TIDY_PASSWORD"); ok {
		return pw, nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

// readLine reads up to a newline one byte at a time, so a second call on
// the same reader sees the next line.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSuffix(sb.String(), "\r"), nil
}

// login opens the app and authenticates --user. The caller must Close the app.
func login(cmd *cobra.Command, operation string) (*app.App, *auth.User, error) {
	name, _ := cmd.Flags().GetString("user")
	pw, err := promptPassword(cmd, "Password: ")
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(operation)
	if err != nil {
		return nil, nil, err
	}
	u, err := a.Login(cmd.Context(), name, pw)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Welcome, %s!\n", u.Name)
	return a, u, nil
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("user")
		pw, err := promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
		if _, env := os.LookupEnv("TIDY_PASSWORD"); !env && pw != "" {
			again, err := promptPassword(cmd, "Confirm password: ")
			if err != nil {
				return err
			}
			if again != pw {
				return errors.New("passwords do not match")
			}
		}

		a, err := newApp("Register")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Register(cmd.Context(), name, pw); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! You can now login.")
		return nil
	},
}
