package main

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("first\r\nsecond"))

	got, err := readLine(in)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = readLine(in)
	require.NoError(t, err)
	assert.Equal(t, "second", got, "last line without newline is still read")

	_, err = readLine(in)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAskIfEmpty(t *testing.T) {
	got, err := askIfEmpty(bufio.NewReader(strings.NewReader("")), "Ada", "Name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got)

	got, err = askIfEmpty(bufio.NewReader(strings.NewReader("ada@example.com\n")), "", "Email")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)

	_, err = askIfEmpty(bufio.NewReader(strings.NewReader("\n")), " ", "Name")
	assert.EqualError(t, err, "name is required")
}
