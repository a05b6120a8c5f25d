package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProfileCommandRoundTrip(t *testing.T) {
	t.Setenv("LICITRADAR_CONFIG", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "cli.db"))

	_, err := execute(t, "profile", "show")
	require.Error(t, err, "show before set should report the missing profile")

	out, err := execute(t, "profile", "set",
		"--positive", "aseo, limpieza",
		"--strategy", "Servicios de aseo industrial")
	require.NoError(t, err)
	require.Contains(t, out, "profile saved")

	out, err = execute(t, "profile", "show")
	require.NoError(t, err)
	require.Contains(t, out, "aseo, limpieza")
	require.Contains(t, out, "Servicios de aseo industrial")
}

func TestProfileSetRequiresPositiveKeywords(t *testing.T) {
	t.Setenv("LICITRADAR_CONFIG", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "cli.db"))

	_, err := execute(t, "profile", "set", "--strategy", "sin keywords")
	require.Error(t, err)
}
