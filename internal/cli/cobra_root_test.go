package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_BindsHabitFlags(t *testing.T) {
	// Arrange
	ta := setupTestApp(t)
	root := NewRootCommand(ta.app)

	// Act
	err := root.ExecuteArgs([]string{"habit", "add", "Read", "--days", "mon,wed,fri", "--metric", "timed", "--min", "10", "--remind", "07:30"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Added habit: Read (Mon,Wed,Fri, timed >= 10 min)\n", ta.out.String())
}

func TestRootCommand_DateFlag(t *testing.T) {
	// Arrange
	ta := setupTestApp(t)
	ta.addHabit(t, "Read", readOptions())
	ta.clock.Advance(48 * time.Hour)
	root := NewRootCommand(ta.app)
	ta.out.Reset()

	// Act
	err := root.ExecuteArgs([]string{"log", "Read", "5", "--date", "2d"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Read: 5/10 min [red]\n", ta.out.String())
}

func TestRootCommand_ListAll(t *testing.T) {
	// Arrange
	ta := setupTestApp(t)
	ta.addHabit(t, "Floss", HabitOptions{})
	ta.mustRun(t, "habit", "archive", "Floss")
	root := NewRootCommand(ta.app)
	ta.out.Reset()

	// Act
	err := root.ExecuteArgs([]string{"habit", "list", "--all"})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, ta.out.String(), "Floss")
	assert.Contains(t, ta.out.String(), "[archived]")
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		errorAssertion func(t *testing.T, err error)
		check          func(t *testing.T, ta *testApp)
	}{
		{
			name: "should apply engine overrides",
			args: []string{"--nudge-window", "30m", "--auto-complete=false", "--timezone", "Europe/Paris", "today"},
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, 30*time.Minute, ta.app.config.Engine.NudgeWindow)
				assert.False(t, ta.app.config.Engine.AutoComplete)
				assert.Equal(t, "Europe/Paris", ta.app.config.Engine.Timezone)
			},
		},
		{
			name: "should leave unset flags alone",
			args: []string{"today"},
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
			check: func(t *testing.T, ta *testApp) {
				assert.Equal(t, 120*time.Minute, ta.app.config.Engine.NudgeWindow)
				assert.True(t, ta.app.config.Engine.AutoComplete)
			},
		},
		{
			name: "should reject an invalid override",
			args: []string{"--db-backend", "floppy", "today"},
			errorAssertion: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "backend must be one of")
			},
		},
		{
			name: "should reject missing arguments",
			args: []string{"check"},
			errorAssertion: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ta := setupTestApp(t)
			root := NewRootCommand(ta.app)

			// Act
			err := root.ExecuteArgs(tt.args)

			// Assert
			tt.errorAssertion(t, err)
			if tt.check != nil {
				tt.check(t, ta)
			}
		})
	}
}
