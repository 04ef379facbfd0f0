package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/netrapro/netra/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with your portal username and password",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var flagLoginUser string

func init() {
	loginCmd.Flags().StringVarP(&flagLoginUser, "username", "u", "", "Portal username (phone number)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	user := strings.TrimSpace(flagLoginUser)
	if user == "" {
		fmt.Print("  Username: ")
		user, _ = reader.ReadString('\n')
		user = strings.TrimSpace(user)
	}

	fmt.Print("  Password: ")
	pass, err := readPassword(reader)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	creds := session.Credentials{Username: user, Password: pass}
	if err := creds.Validate(); err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Checking credentials...\n")
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	_, profile, err := e.sessions.Login(ctx, creds)
	if err != nil {
		return err
	}

	fmt.Printf("\n  Logged in as %s\n", profile.DisplayName(user))
	if session.FromEnv(os.LookupEnv) != nil {
		fmt.Println("  NETRA_USERNAME/NETRA_PASSWORD are set; the session is not saved to disk.")
	} else {
		fmt.Printf("  Session saved to %s\n", sessionPath())
	}
	return nil
}

// readPassword reads without echo from a terminal, or a plain line when
// stdin is piped.
func readPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	if err := e.sessions.Logout(); err != nil {
		return err
	}
	fmt.Println("  Logged out.")
	return nil
}
