package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData signals that the pipeline produced nothing to chart: either the
// manifest listed no shards or no shard carried pull request data.
var ErrNoData = errors.New("no pull request data found in reports")

// ConfigError reports required settings that were not resolved from any
// configured source. It is raised before any network call is made.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required settings: %s. Provide flags or set them in test.env",
		strings.Join(e.Missing, ", "))
}

// CredentialError reports app private key material that could not be parsed
// or is of an unsupported type.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("invalid app private key: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// AuthExchangeError reports a non-2xx response from an authenticated GitHub
// endpoint. The status and body are kept for diagnostics.
type AuthExchangeError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ProtocolError reports a 2xx response from a trusted endpoint whose body did
// not have the expected shape.
type ProtocolError struct {
	Endpoint string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %s", e.Endpoint, e.Reason)
}

// ShardFetchError reports a failed shard download. A single failed shard
// aborts the whole pipeline; partial aggregation would silently under-report.
type ShardFetchError struct {
	Link string
	Err  error
}

func (e *ShardFetchError) Error() string {
	return fmt.Sprintf("downloading report shard %s: %v", e.Link, e.Err)
}

func (e *ShardFetchError) Unwrap() error { return e.Err }
