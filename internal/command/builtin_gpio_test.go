package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/ttyconsole/internal/gpio"
)

func TestGPIOCommands(t *testing.T) {
	t.Parallel()
	bank := gpio.NewBank(8)
	registry, runner, stdout, stderr := newTestRunner(t)
	RegisterGPIOCommands(registry, bank)

	run := func(line string) int {
		stdout.Reset()
		stderr.Reset()
		code, err := runner.Run(context.Background(), &ParseState{}, line)
		require.NoError(t, err, line)
		return code
	}

	assert.Equal(t, 1, run("digitalWrite 2 HIGH"), "pin not yet an output")
	assert.Contains(t, stderr.String(), "not an output")

	assert.Equal(t, 0, run("pinMode 2 output"))
	assert.Equal(t, 0, run("digitalWrite 2 HIGH"))
	assert.Equal(t, 0, run("digitalRead 2"))
	assert.Equal(t, "HIGH\n", stdout.String())

	assert.Equal(t, 0, run("pinMode 3 INPUT_PULLDOWN"))
	assert.Equal(t, 0, run("digitalRead 3"))
	assert.Equal(t, "LOW\n", stdout.String())

	require.NoError(t, bank.SetAnalog(4, 2048))
	assert.Equal(t, 0, run("analogRead 4"))
	assert.Equal(t, "2048\n", stdout.String())

	assert.Equal(t, 1, run("pinMode 99 OUTPUT"))
	assert.Equal(t, 1, run("pinMode 2 SIDEWAYS"))
	assert.Equal(t, 1, run("digitalRead x"))
	assert.Equal(t, 1, run("digitalWrite 2"))
}
