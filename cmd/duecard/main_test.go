package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/model"
	"github.com/Veraticus/duecard/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with a fresh viper and returns everything it printed.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newTestDB(t *testing.T, cards ...model.Card) string {
	t.Helper()
	return testutil.SetupFileDB(t, cards...).Path
}

func setNow(t *testing.T, at time.Time) {
	t.Helper()
	previous := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = previous })
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "duecard dev")
}

func TestRootCmdHasCommandGroups(t *testing.T) {
	root := newRootCmd()

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"cards", "status", "pay", "unpay", "history", "reminders", "catalog", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestInitConfigRejectsBadLogFormat(t *testing.T) {
	_, err := executeCommand(t, "version", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to setup logging")
}
