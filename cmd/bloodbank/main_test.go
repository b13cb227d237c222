package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "bloodbank version "+Version+"\n", out.String())
}

func TestAccountsAdd_RequiresFlags(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"accounts", "add", "--username", "nurse"})

	assert.ErrorContains(t, cmd.Execute(), "--password")
}

func TestImport_RequiresPath(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"import"})

	assert.Error(t, cmd.Execute())
}

func TestAccountsAdd_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:"+dir+"/bloodbank.db")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"accounts", "add", "-u", "nurse", "-p", "pw"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `account "nurse" saved`)
}
