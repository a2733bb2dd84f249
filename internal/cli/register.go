package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command input. Passwords are read without
// echo when the input is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1 unless the input is a terminal
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) password(question string) (string, error) {
	if p.fd < 0 {
		return p.ask(question)
	}
	fmt.Fprint(p.out, question)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// RegisterResult is the output of register.
type RegisterResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an account",
		Long: `Register an account with an email and a password.

The email is asked for unless --email is given. The password is always asked
for and is not echoed on a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

			var err error
			if email == "" {
				if email, err = p.ask("Enter email: "); err != nil {
					return err
				}
			}
			password, err := p.password("Enter password: ")
			if err != nil {
				return err
			}
			confirm, err := p.password("Repeat password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			a, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s, _, err := a.Identity.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			res := RegisterResult{
				UserID: s.UserID,
				Email:  s.Email,
				Role:   string(a.Identity.Policy().RoleFor(s.Email)),
			}
			return rootOpts.printer(cmd).print(res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "registered %s as %s (%s)\n", res.Email, res.UserID, res.Role)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}
