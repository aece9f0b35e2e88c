package dataapi

import (
	"errors"
	"net"
	"strconv"
	"syscall"

	"github.com/aws/smithy-go"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const codeAccessDenied = "ER_ACCESS_DENIED_ERROR"

var codeKinds = map[string]ErrorKind{
	"ECONNREFUSED":   KindConnectionRefused,
	codeAccessDenied: KindAccessDenied,
	"ENOTFOUND":      KindHostNotFound,
	"EHOSTUNREACH":   KindHostNotReachable,
	"EINVAL":         KindInvalidConnection,
}

var errnoCodes = map[syscall.Errno]string{
	syscall.ECONNREFUSED: "ECONNREFUSED",
	syscall.EHOSTUNREACH: "EHOSTUNREACH",
	syscall.EINVAL:       "EINVAL",
}

// MySQL server errors that mean the credentials were rejected.
var mysqlAccessDenied = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1698: true, // ER_ACCESS_DENIED_NO_PASSWORD_ERROR
}

// Classify maps a raw transport error to a ConnectionError. It is a pure
// lookup on RawCode with KindConnection as the fallback.
func Classify(err error) *ConnectionError {
	code := RawCode(err)
	kind, ok := codeKinds[code]
	if !ok {
		kind = KindConnection
	}
	return &ConnectionError{Kind: kind, Code: code, Err: err}
}

// RawCode extracts the transport error code from err's chain, or "" when
// none of the known error shapes carries one.
func RawCode(err error) string {
	if err == nil {
		return ""
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if mysqlAccessDenied[myErr.Number] {
			return codeAccessDenied
		}
		return "ER_" + strconv.Itoa(int(myErr.Number))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 28: invalid authorization specification.
		if pqErr.Code.Class() == "28" {
			return codeAccessDenied
		}
		return string(pqErr.Code)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return "ENOTFOUND"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errnoCodes[errno]
	}
	return ""
}
