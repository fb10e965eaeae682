package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads interactive input line by line. Passwords are masked
// when stdin is a real terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter() *prompter {
	return &prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && s == "" {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.line(label)
	}

	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// choice keeps asking until the answer is one of the given options.
func (p *prompter) choice(label string, options ...string) (string, error) {
	for {
		s, err := p.line(label)
		if err != nil {
			return "", err
		}
		for _, opt := range options {
			if s == opt {
				return s, nil
			}
		}
		fmt.Fprintf(p.out, "Please enter one of: %s\n", strings.Join(options, ", "))
	}
}
