package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

const (
	goodLine = `{"eventType":"INSERT","table":"orders","new":{"id":"o1","customer_id":"c1","status":"pending"}}`
	badLine  = `{"eventType":"INSERT","new":{"id":"o2","customer_id":"c1"}}`
)

func TestRun_StdinJSONL(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), "", validate.FormatAuto, false, false,
		strings.NewReader(goodLine+"\n"+badLine+"\n"), &out, &errOut)

	require.Equal(t, 0, code)
	require.Equal(t, 1, strings.Count(out.String(), "\n"))
	require.Contains(t, errOut.String(), "#2:")
	require.Contains(t, errOut.String(), "1 valid / 1 invalid")
}

func TestRun_StrictAndQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), "", validate.FormatJSONL, true, true,
		strings.NewReader(badLine), &out, &errOut)

	require.Equal(t, 2, code)
	require.Empty(t, out.String())
	require.NotContains(t, errOut.String(), "#1:")
}

func TestRun_FileAndMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte("["+goodLine+","+goodLine+"]"), 0o600))

	var out, errOut bytes.Buffer
	require.Equal(t, 0, run(context.Background(), path, validate.FormatAuto, true, false, nil, &out, &errOut))
	require.Equal(t, 2, strings.Count(out.String(), "\n"))

	errOut.Reset()
	require.Equal(t, 1, run(context.Background(), filepath.Join(dir, "nope.json"), validate.FormatAuto, false, false, nil, &out, &errOut))
	require.Contains(t, errOut.String(), "validation aborted")
}
