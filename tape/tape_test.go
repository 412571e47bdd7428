package tape

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRequest(url string) Request {
	return Request{Method: "GET", URL: url}
}

func textResponse(status int, body string) Response {
	return Response{Status: status, Headers: map[string]string{"Content-Type": "text/plain"}, Body: []byte(body)}
}

func TestRecordAppendsInOrder(t *testing.T) {
	require, assert := require.New(t), assert.New(t)
	tp := New("ordering", ModeReadWrite, MatchRule{})

	require.NoError(tp.Record(getRequest("http://example.com/a"), textResponse(200, "a")))
	require.NoError(tp.Record(getRequest("http://example.com/b"), textResponse(200, "b")))

	assert.Equal(2, tp.Size())
	assert.True(tp.Dirty())

	first, err := tp.Interaction(0)
	require.NoError(err)
	assert.Equal("http://example.com/a", first.Request.URL)

	second, err := tp.Interaction(1)
	require.NoError(err)
	assert.Equal("http://example.com/b", second.Request.URL)
	assert.False(second.Recorded.Before(first.Recorded))
}

func TestRecordForbiddenInReadModes(t *testing.T) {
	assert := assert.New(t)

	for _, mode := range []Mode{ModeReadOnly, ModeReadSequential} {
		tp := New("readonly", mode, MatchRule{})
		err := tp.Record(getRequest("http://example.com/"), textResponse(200, "x"))
		assert.ErrorIs(err, ErrNotWritable, "mode %s", mode)
		assert.Equal(0, tp.Size(), "mode %s", mode)
		assert.False(tp.Dirty(), "mode %s", mode)

		err = tp.Overwrite(0, getRequest("http://example.com/"), textResponse(200, "x"))
		assert.ErrorIs(err, ErrNotWritable, "mode %s", mode)
	}
}

func TestOverwriteReplacesInPlace(t *testing.T) {
	require, assert := require.New(t), assert.New(t)
	tp := New("overwrite", ModeWriteOnly, MatchRule{})

	require.NoError(tp.Record(getRequest("http://example.com/"), textResponse(202, "stale")))
	require.NoError(tp.Record(getRequest("http://example.com/other"), textResponse(200, "other")))

	require.NoError(tp.Overwrite(0, getRequest("http://example.com/"), textResponse(200, "fresh")))

	assert.Equal(2, tp.Size(), "overwrite preserves the sequence length")
	replaced, err := tp.Interaction(0)
	require.NoError(err)
	assert.Equal(200, replaced.Response.Status)
	assert.Equal("fresh", string(replaced.Response.Body))

	untouched, err := tp.Interaction(1)
	require.NoError(err)
	assert.Equal("other", string(untouched.Response.Body))
}

func TestOverwriteBounds(t *testing.T) {
	assert := assert.New(t)
	tp := New("bounds", ModeWriteOnly, MatchRule{})

	assert.Error(tp.Overwrite(0, getRequest("http://example.com/"), textResponse(200, "")))
	assert.Error(tp.Overwrite(-1, getRequest("http://example.com/"), textResponse(200, "")))

	_, err := tp.Interaction(0)
	assert.Error(err)
}

func TestFindMatchUnorderedPrefersMostRecent(t *testing.T) {
	require, assert := require.New(t), assert.New(t)
	tp := New("duplicates", ModeReadWrite, MatchRule{})

	require.NoError(tp.Record(getRequest("http://example.com/"), textResponse(200, "first")))
	require.NoError(tp.Record(getRequest("http://example.com/"), textResponse(200, "second")))

	match, index, err := tp.FindMatch(getRequest("http://example.com/"))
	require.NoError(err)
	assert.Equal(1, index, "most recently recorded match wins")
	assert.Equal("second", string(match.Response.Body))
}

func TestFindMatchUnorderedNoMatch(t *testing.T) {
	assert := assert.New(t)
	tp := New("empty", ModeReadOnly, MatchRule{})

	_, index, err := tp.FindMatch(getRequest("http://example.com/"))
	assert.ErrorIs(err, ErrNoMatch)
	assert.Equal(-1, index)
}

func TestSequentialCursorMonotonicity(t *testing.T) {
	require, assert := require.New(t), assert.New(t)

	// Record three interactions for the same key, then replay them in order.
	writer := New("sequence", ModeReadWrite, MatchRule{})
	for i := 0; i < 3; i++ {
		require.NoError(writer.Record(getRequest("http://example.com/poll"), textResponse(200, fmt.Sprintf("tick %d", i))))
	}
	reader := newLoaded("sequence", ModeReadSequential, MatchRule{}, writer.Interactions())

	for i := 0; i < 3; i++ {
		match, index, err := reader.FindMatch(getRequest("http://example.com/poll"))
		require.NoError(err)
		assert.Equal(i, index, "cursor advances exactly once per match")
		assert.Equal(fmt.Sprintf("tick %d", i), string(match.Response.Body))
	}

	_, _, err := reader.FindMatch(getRequest("http://example.com/poll"))
	assert.ErrorIs(err, ErrSequentialExhausted)
	assert.ErrorIs(err, ErrNotWritable, "exhaustion surfaces as a not-writable rejection")
}

func TestSequentialCursorHoldsOnMismatch(t *testing.T) {
	require, assert := require.New(t), assert.New(t)

	writer := New("sequence", ModeReadWrite, MatchRule{})
	require.NoError(writer.Record(getRequest("http://example.com/a"), textResponse(200, "a")))
	require.NoError(writer.Record(getRequest("http://example.com/b"), textResponse(200, "b")))
	reader := newLoaded("sequence", ModeReadSequential, MatchRule{}, writer.Interactions())

	// Out-of-order request does not match and must not advance the cursor.
	_, _, err := reader.FindMatch(getRequest("http://example.com/b"))
	assert.ErrorIs(err, ErrNoMatch)

	match, index, err := reader.FindMatch(getRequest("http://example.com/a"))
	require.NoError(err)
	assert.Equal(0, index)
	assert.Equal("a", string(match.Response.Body))
}

func TestInteractionsReturnsCopy(t *testing.T) {
	require, assert := require.New(t), assert.New(t)
	tp := New("copy", ModeReadWrite, MatchRule{})
	require.NoError(tp.Record(getRequest("http://example.com/"), textResponse(200, "x")))

	snapshot := tp.Interactions()
	snapshot[0] = Interaction{}

	kept, err := tp.Interaction(0)
	require.NoError(err)
	assert.Equal("http://example.com/", kept.Request.URL)
}

func TestErrSequentialExhaustedIdentity(t *testing.T) {
	assert := assert.New(t)
	assert.True(errors.Is(ErrSequentialExhausted, ErrNotWritable))
	assert.False(errors.Is(ErrNoMatch, ErrNotWritable))
}
