package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasure(t *testing.T) {
	t.Parallel()

	r := measure(1_000, 0.01, 20_000)
	assert.Equal(t, uint64(9586), r.size)
	assert.Equal(t, uint64(7), r.k)
	assert.Equal(t, 16+9586*4, r.encoded)

	// Loose bounds: the observed rate tracks the target.
	assert.Less(t, r.observed, 0.03)
	assert.InDelta(t, 0.01, r.estimated, 0.005)

	// Removing members only lowers the rate.
	assert.LessOrEqual(t, r.observedAfterRemove, r.observed)
}

func TestRootCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--items", "100", "--rates", "0.05", "--queries", "1000"})
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "OBSERVED")
	assert.Contains(t, out.String(), "5.000%")
}

func TestRootCommandRejectsZeroQueries(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--queries", "0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
