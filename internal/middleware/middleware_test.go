package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	procedure, code string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeRecorder) RecordRPC(procedure, code string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recorded{procedure, code})
}

type ping struct{}

func TestInterceptors(t *testing.T) {
	rec := &fakeRecorder{}
	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	}
	notFound := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("group not found"))
	}

	wrap := func(fn connect.UnaryFunc) connect.UnaryFunc {
		return LoggingInterceptor()(MetricsInterceptor(rec)(fn))
	}

	req := connect.NewRequest(&ping{})
	_, err := wrap(ok)(context.Background(), req)
	require.NoError(t, err)

	_, err = wrap(notFound)(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, "ok", rec.calls[0].code)
	assert.Equal(t, "not_found", rec.calls[1].code)
}
