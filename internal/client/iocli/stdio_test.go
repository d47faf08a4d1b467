package iocli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	s := New(strings.NewReader(""), &out)

	s.Println("hello", "world")
	s.Printf("test %d %s", 1, "abc")
	_, err := s.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

func TestReadInput_Sequential(t *testing.T) {
	var out bytes.Buffer
	s := New(strings.NewReader("alice\n  racks  \nlast"), &out)

	first, err := s.ReadInput("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", first)

	second, err := s.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "racks", second)

	// последняя строка без \n
	third, err := s.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", third)

	_, err = s.ReadInput("> ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "Username: > > > ", out.String())
}

// Из pipe пароль читается как обычная строка
func TestReadPassword_NotTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte("secret-password\n"))
		_ = w.Close()
	}()
	t.Cleanup(func() { _ = r.Close() })

	var out bytes.Buffer
	s := New(r, &out)
	assert.False(t, s.terminal)

	password, err := s.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret-password", password)
	assert.Equal(t, "Password: ", out.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "Y\n", want: true},
		{input: "no\n", want: false},
		{input: "\n", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			ok, err := Confirm(New(strings.NewReader(tt.input), &out), "Delete 2 racks?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, "Delete 2 racks? (yes/no): ", out.String())
		})
	}
}

func TestConfirm_EOF(t *testing.T) {
	_, err := Confirm(New(strings.NewReader(""), io.Discard), "Proceed?")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}
