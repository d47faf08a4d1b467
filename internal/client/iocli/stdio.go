package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio читает строки из in и пишет в out.
// Пароль читается без эха, только если in является терминалом.
type Stdio struct {
	in       *bufio.Reader
	out      io.Writer
	fd       int
	terminal bool
}

var _ IO = (*Stdio)(nil)

// NewStdio создает IO поверх os.Stdin и os.Stdout
func NewStdio() *Stdio {
	return New(os.Stdin, os.Stdout)
}

// New создает IO поверх произвольных потоков
func New(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{
		in:  bufio.NewReader(in),
		out: out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.fd = int(f.Fd())
		s.terminal = true
	}
	return s
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// ReadInput печатает prompt и читает одну строку.
// Последняя строка без перевода строки тоже возвращается, io.EOF только на пустом остатке.
func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if !s.terminal {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	pwBytes, err := term.ReadPassword(s.fd)
	s.Println()
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}
