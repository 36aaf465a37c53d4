package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appRepos "github.com/yigit/crms/internal/app/repositories"
)

func TestPrintChecks(t *testing.T) {
	var buf bytes.Buffer
	err := printChecks(&buf, []appRepos.IntegrityCheck{
		{Name: "orphan_attendance", Description: "attendance rows without a session", Count: 0},
		{Name: "unmarked_attendance", Description: "rows still not marked", Count: 0},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "orphan_attendance")
	assert.Contains(t, buf.String(), "CHECK")

	buf.Reset()
	err = printChecks(&buf, []appRepos.IntegrityCheck{
		{Name: "orphan_attendance", Count: 3},
		{Name: "unmarked_attendance", Count: 0},
	})
	require.ErrorIs(t, err, errIntegrityIssues)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestSectionFlagRejectsNonPositive(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(&buf)

	err := app.Run([]string{"crmsadmin", "refresh-analytics", "--section", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--section must be a positive ID")
}

func TestCommandsRegistered(t *testing.T) {
	app := newApp(&bytes.Buffer{})
	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"migrate", "seed", "repair-attendance", "refresh-analytics", "check"}, names)
}
