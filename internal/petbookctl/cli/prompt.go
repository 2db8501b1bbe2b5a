package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// terminalPassword reads without echo when in is a terminal.
func terminalPassword(in io.Reader, out io.Writer, lines *bufio.Reader) func(string) (string, error) {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
		return readLine(lines)
	}
}

// ask returns value when set, otherwise prompts for it.
func (e *env) ask(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(e.opts.Out, prompt)
	return readLine(e.lines)
}

// newPassword prompts twice and checks both entries match.
func (e *env) newPassword() (string, error) {
	pw, err := e.opts.Password("Nova senha: ")
	if err != nil {
		return "", err
	}
	again, err := e.opts.Password("Repita a senha: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("as senhas não conferem")
	}
	return pw, nil
}
