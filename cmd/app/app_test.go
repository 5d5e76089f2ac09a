package main

import (
	"testing"

	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd(logger.NewNopLogger())

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "report"})
}

func TestReportCmd_NothingToDo(t *testing.T) {
	root := newRootCmd(logger.NewNopLogger())
	root.SetArgs([]string{"report", "--out", ""})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to do")
}

func TestMigrateCmd_RequiresDatabaseConfig(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")

	root := newRootCmd(logger.NewNopLogger())
	root.SetArgs([]string{"migrate"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER")
}
