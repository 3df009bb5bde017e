package main

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	flag.CommandLine.SetOutput(&out)
	defer flag.CommandLine.SetOutput(os.Stderr)

	usage()
	require.Contains(t, out.String(), "module:callable")
	require.Contains(t, out.String(), "built-in applications: demo:crash, demo:environ, demo:hello, demo:slow")
}
