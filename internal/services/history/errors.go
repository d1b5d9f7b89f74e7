package history

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRetrievalUnavailable means no text generator is configured, so
	// remote retrieval is not attempted at all
	ErrRetrievalUnavailable = errors.New("history retrieval unavailable: no generator configured")

	// ErrMalformedResponse means a generator response held no decodable history array
	ErrMalformedResponse = errors.New("malformed history response")
)

// ChunkError records the failure of one retrieval chunk. It never aborts a pass.
type ChunkError struct {
	Symbols []string
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("history chunk [%s]: %v", strings.Join(e.Symbols, ","), e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
