package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesOnlyItsKind(t *testing.T) {
	sentinels := map[Kind]error{
		KindTransport: ErrTransport,
		KindStatus:    ErrStatus,
		KindDecode:    ErrDecode,
		KindRejected:  ErrRejected,
	}

	for kind := range sentinels {
		err := fmt.Errorf("wrapped: %w", &Error{Kind: kind, Err: errors.New("cause")})
		for other, sentinel := range sentinels {
			assert.Equal(t, kind == other, errors.Is(err, sentinel), "kind %s vs %s", kind, other)
		}
	}
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "transport", err: &Error{Kind: KindTransport, Err: errors.New("dial tcp: refused")}, want: "upstream unreachable: dial tcp: refused"},
		{name: "status", err: &Error{Kind: KindStatus, StatusCode: 502}, want: "upstream returned non-success status: 502"},
		{name: "decode", err: &Error{Kind: KindDecode, Err: errors.New("bad json")}, want: "upstream returned malformed payload: bad json"},
		{name: "rejected with reason", err: Reject(errors.New("rate limited")), want: "request rejected before dispatch: rate limited"},
		{name: "rejected bare", err: Reject(nil), want: "request rejected before dispatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Kind: KindTransport, Err: cause}
	assert.True(t, errors.Is(err, cause))
}

func TestError_Timeout(t *testing.T) {
	assert.True(t, (&Error{Kind: KindTransport, Err: context.DeadlineExceeded}).Timeout())
	assert.False(t, (&Error{Kind: KindTransport, Err: context.Canceled}).Timeout())
	assert.False(t, (&Error{Kind: KindStatus, Err: context.DeadlineExceeded}).Timeout())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindDecode, KindOf(fmt.Errorf("ctx: %w", &Error{Kind: KindDecode})))
	assert.False(t, IsTimeout(errors.New("plain")))
}
