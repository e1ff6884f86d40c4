package loader

import (
	"errors"
	"fmt"
)

// ErrConnectivity indicates the provider failed the reachability probe; no
// per-symbol request was attempted.
var ErrConnectivity = errors.New("market data provider unreachable")

// ErrEmptyResult indicates every requested symbol came back empty; a table
// with zero columns is never returned.
var ErrEmptyResult = errors.New("no data returned for any requested symbol")

// SymbolFetchError is a hard per-symbol provider failure. It aborts the
// whole fetch: a partially fetched table could silently mislead downstream
// statistics.
type SymbolFetchError struct {
	Symbol string
	Err    error
}

func (e *SymbolFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *SymbolFetchError) Unwrap() error { return e.Err }
