package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"
	"library-backend/pkg/jwt"
)

var errPasswordMismatch = errors.New("passwords do not match")

func newCreateLibrarianCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "create-librarian",
		Short: "Create a librarian account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptPassword(cmd.ErrOrStderr(), cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			// Creating an account touches neither cache nor object storage.
			svc := userService.NewService(
				userRepo.NewPostgresRepository(db.Pool),
				jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer),
				nil, nil, nil,
				userService.Config{SignupTTL: cfg.JWT.SignupTTL, LoginTTL: cfg.JWT.LoginTTL},
			)
			u, err := svc.CreateLibrarian(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "librarian %s created (id %s)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// promptPassword asks twice. A terminal gets masked input; piped input is
// read line by line.
func promptPassword(out io.Writer, in io.Reader) (string, error) {
	read := lineReader(in)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		read = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
	}

	fmt.Fprint(out, "Password: ")
	first, err := read()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Confirm password: ")
	second, err := read()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if first != second {
		return "", errPasswordMismatch
	}
	return first, nil
}

func lineReader(in io.Reader) func() (string, error) {
	sc := bufio.NewScanner(in)
	return func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimRight(sc.Text(), "\r"), nil
	}
}
