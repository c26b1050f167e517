// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"errors"
	"strings"
)

// FailureKind classifies a query failure for reporting and metrics.
type FailureKind string

const (
	// FailureNone indicates success.
	FailureNone FailureKind = "none"

	// FailureConfiguration covers missing or invalid connection parameters.
	// Detected before any query attempt; never retried.
	FailureConfiguration FailureKind = "configuration"

	// FailureConnection covers transport-level faults: stale sessions,
	// refused or reset connections, timeouts mid-handshake. Retried once
	// on a fresh connection.
	FailureConnection FailureKind = "connection"

	// FailureQuery covers everything else the warehouse rejects: SQL
	// errors, permission failures, missing tables. Never retried, because
	// a fresh connection would fail identically.
	FailureQuery FailureKind = "query"
)

// ConfigError reports a missing or invalid connection parameter. It is a
// terminal configuration failure; the caller reports it without retrying.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "warehouse configuration error: " + e.Reason
}

// Outcome is the typed result of a warehouse operation as seen by the
// presentation layer. Err is nil exactly when Kind is FailureNone.
type Outcome struct {
	Kind   FailureKind
	Status string
	Err    error
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool {
	return o.Kind == FailureNone
}

// Classify maps an error to its failure kind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return FailureConfiguration
	}
	if isConnectionError(err) {
		return FailureConnection
	}
	return FailureQuery
}

// connectionErrorMarkers are substrings that identify transport-level
// failures across the driver's error surfaces. Classification is
// conservative: anything unrecognized is a query failure and is not
// retried.
var connectionErrorMarkers = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"broken pipe",
	"session expired",
	"session is closed",
	"invalid session",
	"database is locked",
	"driver: bad connection",
	"i/o timeout",
	"eof",
}

// isConnectionError reports whether err looks like a transport-level
// fault worth one retry on a fresh connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range connectionErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
