package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/services"

	"golang.org/x/term"
)

// AdminPrompt collects administrator details interactively.
type AdminPrompt struct {
	in  *bufio.Reader
	out io.Writer
	// readSecret reads a line without echo when the input is a terminal.
	readSecret func() (string, error)
}

// NewAdminPrompt reads from in and writes prompts to out. When in is a
// terminal, passwords are read without echo.
func NewAdminPrompt(in io.Reader, out io.Writer) *AdminPrompt {
	p := &AdminPrompt{in: bufio.NewReader(in), out: out}
	p.readSecret = p.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

func (p *AdminPrompt) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *AdminPrompt) ask(label string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", label)
		value, err := p.readLine()
		if err != nil {
			return "", err
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
	}
}

func (p *AdminPrompt) askSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readSecret()
}

// CreateAdmin prompts for username, email and password, then registers the
// administrator. Invalid emails and weak or mismatched passwords are asked
// again; an existing username or email aborts with services.ErrUserExists.
func CreateAdmin(ctx context.Context, p *AdminPrompt, authService services.AuthService) (*models.User, error) {
	fmt.Fprintln(p.out, "--- Create administrator user ---")

	username, err := p.ask("Administrator username")
	if err != nil {
		return nil, err
	}

	var email string
	for {
		if email, err = p.ask("Administrator email"); err != nil {
			return nil, err
		}
		if services.ValidateEmail(email) == nil {
			break
		}
		fmt.Fprintf(p.out, "Error: %q is not a valid email address. Try again.\n", email)
	}

	var password string
	for {
		if password, err = p.askSecret("Administrator password (hidden)"); err != nil {
			return nil, err
		}
		if err := services.CheckPasswordStrength(password); err != nil {
			fmt.Fprintf(p.out, "Error: %v. Please choose a stronger password.\n", err)
			continue
		}
		confirm, err := p.askSecret("Confirm password")
		if err != nil {
			return nil, err
		}
		if confirm == password {
			break
		}
		fmt.Fprintln(p.out, "Error: passwords do not match.")
	}

	user, err := authService.CreateAdmin(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "Administrator %q created.\n", user.Username)
	return user, nil
}
