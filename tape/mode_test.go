package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyTable(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		mode     Mode
		playback bool
		write    bool
		strategy WriteStrategy
		scope    MatchScope
	}{
		{ModeReadOnly, true, false, WriteAppend, ScopeUnordered},
		{ModeReadSequential, true, false, WriteAppend, ScopeSequential},
		{ModeReadWrite, true, true, WriteAppend, ScopeUnordered},
		{ModeWriteOnly, false, true, WriteOverwrite, ScopeUnordered},
		{ModeWriteSequential, false, true, WriteAppend, ScopeUnordered},
	}

	for _, c := range cases {
		p := c.mode.Policy()
		assert.Equal(c.playback, p.Playback, "%s playback", c.mode)
		assert.Equal(c.write, p.Write, "%s write", c.mode)
		assert.Equal(c.strategy, p.Strategy, "%s strategy", c.mode)
		assert.Equal(c.scope, p.Scope, "%s scope", c.mode)
	}
}

func TestParseMode(t *testing.T) {
	require, assert := require.New(t), assert.New(t)

	m, err := ParseMode("read_write")
	require.NoError(err)
	assert.Equal(ModeReadWrite, m)

	m, err = ParseMode("  WRITE_SEQUENTIAL ")
	require.NoError(err)
	assert.Equal(ModeWriteSequential, m)

	_, err = ParseMode("REWIND")
	assert.Error(err)

	assert.False(Mode("").Valid())
	assert.True(ModeReadOnly.Valid())
}
