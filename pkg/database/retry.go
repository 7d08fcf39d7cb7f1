package database

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes inside otherwise retryable classes that will not clear up on their own.
var persistentStates = map[string]bool{
	"53100": true, // disk_full
	"53200": true, // out_of_memory
}

// transientClasses are SQLSTATE class prefixes for failures caused by server
// load, lock contention or a dropped connection.
var transientClasses = []string{
	"08",  // connection_exception
	"40",  // transaction_rollback: serialization failure, deadlock
	"53",  // insufficient_resources
	"55P", // lock_not_available
	"57P", // operator intervention: shutdown, cannot_connect_now
	"58",  // system_error
	"XX",  // internal_error
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"too many connections",
	"server closed",
	"unexpected eof",
	"timeout",
}

// IsTransient reports whether a failed report query is worth running again.
// Cancellation, no-rows and statement errors are final.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if persistentStates[pgErr.Code] {
			return false
		}
		for _, class := range transientClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
