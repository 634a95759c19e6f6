package joshrr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindPredicates(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{ParseErrorf(cause, "bad filter %q", "x"), IsParseError},
		{AuthErrorf(cause, "denied"), IsAuthError},
		{UpstreamErrorf(cause, "fetch failed"), IsUpstreamError},
		{ObjectStoreErrorf(cause, "no such object"), IsObjectStoreError},
		{CacheErrorf(cause, "version mismatch"), IsCacheError},
		{InternalErrorf(cause, "unreachable"), IsInternalError},
	}
	for _, c := range cases {
		require.True(t, c.pred(c.err))
		require.True(t, errors.Is(c.err, c.err))
		require.ErrorIs(t, c.err, cause)
	}
}

func TestHTTPStatus(t *testing.T) {
	status, _ := HTTPStatus(ParseErrorf(nil, "x"))
	require.Equal(t, 404, status)

	status, _ = HTTPStatus(AuthErrorf(nil, "x"))
	require.Equal(t, 401, status)

	status, _ = HTTPStatus(UpstreamErrorf(nil, "x"))
	require.Equal(t, 500, status)
}
