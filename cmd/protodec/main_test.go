package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, flags map[string]bool, args []string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for name, val := range flags {
		set.Bool(name, val, "")
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestRunPrintMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "msg.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x0a, 0x04, '0', '1', '2', '3'}, 0o644))

	ctx := newTestContext(t, map[string]bool{"print": true, "schema": false, "java": false}, []string{"--print", path})

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	err := run(ctx)
	w.Close()
	os.Stdout = old
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.ReadFrom(r)
	require.Equal(t, "1: \"0123\"\n", buf.String())
}

func TestRunMissingFile(t *testing.T) {
	ctx := newTestContext(t, map[string]bool{"print": true}, []string{"--print", "/does/not/exist"})
	err := run(ctx)
	require.Error(t, err)
	// The literal CLI text is "ERROR: file '<path>' is empty or not
	// found.", assembled by main()'s "ERROR: %s." wrapper around this
	// error's message -- so the error itself must carry no ERROR:
	// prefix or trailing period of its own.
	require.Equal(t, "file '/does/not/exist' is empty or not found", err.Error())
}

func TestRunScanMissErrorText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.bin")
	require.NoError(t, os.WriteFile(path, []byte("no descriptor bytes here"), 0o644))

	ctx := newTestContext(t, nil, []string{path})
	err := run(ctx)
	require.Error(t, err)
	require.Equal(t, "nothing is found", err.Error())
}

func TestRunNoArgsShowsHelp(t *testing.T) {
	ctx := newTestContext(t, nil, []string{})
	err := run(ctx)
	require.NoError(t, err)
}
