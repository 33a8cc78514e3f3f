package logclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/internal/store/storetest"
	"github.com/rzbill/streamer/pkg/id"
)

func TestAppendRequestsDefaultMaxLen(t *testing.T) {
	fake := storetest.NewFake()
	c := New(fake, Options{})
	_, err := c.Append(context.Background(), "s", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxLen, fake.Calls()[0].Count)
}

func TestAppendErrorPropagates(t *testing.T) {
	fake := storetest.NewFake()
	boom := errors.New("boom")
	fake.AppendFunc = func(string, map[string]string, int64) (id.ID, error) { return id.ID{}, boom }
	_, err := New(fake, Options{}).Append(context.Background(), "s", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"append"}, fake.Ops(), "append must not be retried")
}

func TestReadByCursorResults(t *testing.T) {
	fake := storetest.NewFake()
	c := New(fake, Options{})
	ctx := context.Background()

	r := c.ReadByCursor(ctx, "s", "$", 0, 10)
	assert.Equal(t, StatusEmpty, r.Status)

	fake.ReadFunc = func(context.Context, string, string, time.Duration, int) ([]store.Entry, error) {
		return storetest.Entries(1, 2), nil
	}
	r = c.ReadByCursor(ctx, "s", "$", 0, 10)
	require.Equal(t, StatusOK, r.Status)
	assert.Equal(t, []id.ID{{Ms: 1}, {Ms: 2}}, r.IDs())

	boom := errors.New("ERR syntax")
	fake.ReadFunc = func(context.Context, string, string, time.Duration, int) ([]store.Entry, error) {
		return nil, boom
	}
	r = c.ReadByCursor(ctx, "s", "$", 0, 10)
	assert.True(t, r.Failed())
	assert.ErrorIs(t, r.Reason, boom)
}

func TestSupervisorReconnectsOnlyWhenClosed(t *testing.T) {
	fake := storetest.NewFake()
	closed := fmt.Errorf("%w: socket gone", store.ErrClientClosed)
	fake.ReadFunc = func(context.Context, string, string, time.Duration, int) ([]store.Entry, error) {
		return nil, closed
	}
	c := New(fake, Options{})
	ctx := context.Background()

	// Backend reports open: defer to the driver.
	r := c.ReadByCursor(ctx, "s", "0-0", 0, 1)
	assert.Equal(t, StatusRetryable, r.Status)
	assert.Equal(t, []string{"read"}, fake.Ops())
	assert.Zero(t, c.Reconnects())

	// Backend reports closed: exactly one reconnect and no retry of the read.
	fake.SetOpen(false)
	r = c.ReadByCursor(ctx, "s", "0-0", 0, 1)
	assert.Equal(t, StatusRetryable, r.Status)
	assert.Equal(t, []string{"read", "read", "connect"}, fake.Ops())
	assert.EqualValues(t, 1, c.Reconnects())
	assert.True(t, fake.IsOpen())
}

func TestSupervisorReconnectFailureIsSwallowed(t *testing.T) {
	fake := storetest.NewFake()
	fake.SetOpen(false)
	fake.ConnectFunc = func() error { return errors.New("dial refused") }
	fake.AutoClaimFunc = func(string, string, string, time.Duration, string, int) ([]store.Entry, string, error) {
		return nil, "", store.ErrClientClosed
	}
	c := New(fake, Options{})
	r := c.AutoClaim(context.Background(), "s", "g", "c", time.Second, 5)
	assert.Equal(t, StatusRetryable, r.Status)
	assert.Zero(t, c.Reconnects())
}

func TestReadAsGroupMemberCreatesMissingGroup(t *testing.T) {
	fake := storetest.NewFake()
	fake.ReadGroupFunc = func(context.Context, string, string, string, time.Duration, int) ([]store.Entry, error) {
		return nil, fmt.Errorf("%w: NOGROUP", store.ErrNoGroup)
	}
	c := New(fake, Options{})
	r := c.ReadAsGroupMember(context.Background(), "s", "g", "c1", 0, 1)
	assert.Equal(t, StatusEmpty, r.Status, "a created group is not a failure")
	assert.NoError(t, r.Reason)
	assert.False(t, r.Failed())

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "creategroup", calls[1].Op)
	assert.Equal(t, "0", calls[1].Cursor)
	assert.Equal(t, "g", calls[1].Group)
}

func TestReadAsGroupMemberCreateFailureIsRetryable(t *testing.T) {
	fake := storetest.NewFake()
	fake.ReadGroupFunc = func(context.Context, string, string, string, time.Duration, int) ([]store.Entry, error) {
		return nil, fmt.Errorf("%w: NOGROUP", store.ErrNoGroup)
	}
	wrongType := errors.New("WRONGTYPE")
	fake.CreateGroupFunc = func(string, string, string) error { return wrongType }
	r := New(fake, Options{}).ReadAsGroupMember(context.Background(), "s", "g", "c1", 0, 1)
	assert.Equal(t, StatusRetryable, r.Status)
	assert.ErrorIs(t, r.Reason, wrongType)
}

func TestCreateGroupSwallowsBusyGroup(t *testing.T) {
	fake := storetest.NewFake()
	fake.CreateGroupFunc = func(string, string, string) error { return store.ErrBusyGroup }
	c := New(fake, Options{})
	require.NoError(t, c.CreateGroup(context.Background(), "s", "g", "0"))
	require.NoError(t, c.CreateGroup(context.Background(), "s", "g", "0"))

	fake.CreateGroupFunc = func(string, string, string) error { return errors.New("WRONGTYPE") }
	assert.Error(t, c.CreateGroup(context.Background(), "s", "g", "0"))
}

func TestAutoClaimAlwaysScansFromBeginning(t *testing.T) {
	fake := storetest.NewFake()
	fake.AutoClaimFunc = func(string, string, string, time.Duration, string, int) ([]store.Entry, string, error) {
		return storetest.Entries(7), "9-0", nil
	}
	c := New(fake, Options{})
	for i := 0; i < 2; i++ {
		r := c.AutoClaim(context.Background(), "s", "g", "c", 5*time.Second, 3)
		require.Equal(t, StatusOK, r.Status)
	}
	for _, call := range fake.Calls() {
		assert.Equal(t, id.Beginning, call.Cursor)
		assert.Equal(t, 5*time.Second, call.MinIdle)
	}
}

func TestAcknowledgeIsBestEffort(t *testing.T) {
	fake := storetest.NewFake()
	c := New(fake, Options{})
	ctx := context.Background()

	assert.Equal(t, StatusEmpty, c.Acknowledge(ctx, "s", "g", nil).Status)
	assert.Empty(t, fake.Calls(), "no ids means no call")

	assert.Equal(t, StatusOK, c.Acknowledge(ctx, "s", "g", []id.ID{{Ms: 1}}).Status)

	fake.AckFunc = func(string, string, []id.ID) (int64, error) { return 0, errors.New("ERR") }
	assert.Equal(t, StatusRetryable, c.Acknowledge(ctx, "s", "g", []id.ID{{Ms: 1}}).Status)
}

func TestTailFallsBackToLatest(t *testing.T) {
	fake := storetest.NewFake()
	fake.LastIDFunc = func(string) (id.ID, error) { return id.ID{Ms: 5, Seq: 2}, nil }
	c := New(fake, Options{})
	assert.Equal(t, "5-2", c.Tail(context.Background(), "s"))

	fake.LastIDFunc = func(string) (id.ID, error) { return id.ID{}, errors.New("down") }
	assert.Equal(t, id.Latest, c.Tail(context.Background(), "s"))
}

func TestPing(t *testing.T) {
	fake := storetest.NewFake()
	c := New(fake, Options{})
	_, err := c.Ping(context.Background())
	require.NoError(t, err)

	fake.PingFunc = func() error { return store.ErrClientClosed }
	fake.SetOpen(false)
	_, err = c.Ping(context.Background())
	assert.ErrorIs(t, err, store.ErrClientClosed)
	assert.EqualValues(t, 1, c.Reconnects())
}
