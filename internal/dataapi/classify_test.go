package dataapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyCodeTable(t *testing.T) {
	tests := []struct {
		code     string
		kind     ErrorKind
		sentinel error
	}{
		{code: "ECONNREFUSED", kind: KindConnectionRefused, sentinel: ErrConnectionRefused},
		{code: "ER_ACCESS_DENIED_ERROR", kind: KindAccessDenied, sentinel: ErrAccessDenied},
		{code: "ENOTFOUND", kind: KindHostNotFound, sentinel: ErrHostNotFound},
		{code: "EHOSTUNREACH", kind: KindHostNotReachable, sentinel: ErrHostNotReachable},
		{code: "EINVAL", kind: KindInvalidConnection, sentinel: ErrInvalidConnection},
		{code: "ETIMEDOUT", kind: KindConnection, sentinel: ErrConnection},
		{code: "BadRequestException", kind: KindConnection, sentinel: ErrConnection},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			raw := &smithy.GenericAPIError{Code: tt.code, Message: "probe failed"}
			got := Classify(raw)

			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.code, got.Code)
			assert.ErrorIs(t, got, tt.sentinel)
			assert.ErrorIs(t, got, ErrConnection)

			var unwrapped *smithy.GenericAPIError
			assert.ErrorAs(t, got, &unwrapped)
			assert.Same(t, raw, unwrapped)
		})
	}
}

func TestClassifyDoesNotMatchOtherKinds(t *testing.T) {
	got := Classify(&smithy.GenericAPIError{Code: "ENOTFOUND"})
	assert.NotErrorIs(t, got, ErrConnectionRefused)
	assert.NotErrorIs(t, got, ErrAccessDenied)
}

func TestRawCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: ""},
		{name: "deadline", err: context.DeadlineExceeded, want: ""},
		{name: "api error wrapped", err: fmt.Errorf("operation error: %w", &smithy.GenericAPIError{Code: "EINVAL"}), want: "EINVAL"},
		{name: "mysql access denied", err: &mysql.MySQLError{Number: 1045, Message: "Access denied"}, want: "ER_ACCESS_DENIED_ERROR"},
		{name: "mysql other", err: &mysql.MySQLError{Number: 1049}, want: "ER_1049"},
		{name: "pq invalid password", err: &pq.Error{Code: "28P01"}, want: "ER_ACCESS_DENIED_ERROR"},
		{name: "pq other", err: &pq.Error{Code: "3D000"}, want: "3D000"},
		{name: "dns not found", err: &net.OpError{Op: "dial", Err: &net.DNSError{Name: "db.example", IsNotFound: true}}, want: "ENOTFOUND"},
		{name: "dns timeout", err: &net.DNSError{Name: "db.example", IsTimeout: true}, want: ""},
		{name: "refused", err: &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, want: "ECONNREFUSED"},
		{name: "unreachable", err: syscall.EHOSTUNREACH, want: "EHOSTUNREACH"},
		{name: "invalid", err: syscall.EINVAL, want: "EINVAL"},
		{name: "other errno", err: syscall.EPIPE, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RawCode(tt.err))
		})
	}
}

func TestClassifyNetworkErrors(t *testing.T) {
	refused := &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	assert.Equal(t, KindConnectionRefused, Classify(refused).Kind)

	notFound := &net.DNSError{Name: "db.example", IsNotFound: true}
	assert.Equal(t, KindHostNotFound, Classify(notFound).Kind)

	assert.Equal(t, KindAccessDenied, Classify(&mysql.MySQLError{Number: 1045}).Kind)
	assert.Equal(t, KindConnection, Classify(context.DeadlineExceeded).Kind)
}

func TestConnectionErrorMessage(t *testing.T) {
	err := Classify(&smithy.GenericAPIError{Code: "ECONNREFUSED", Message: "nope"})
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "nope")
	assert.True(t, IsConnectionError(fmt.Errorf("pool: %w", err)))
	assert.False(t, IsConnectionError(errors.New("other")))
	assert.Equal(t, "ConnectionRefused", err.Kind.String())
}
