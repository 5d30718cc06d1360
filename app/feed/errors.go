package feed

import (
	"fmt"
)

type FetchKind string

const (
	FetchRequest FetchKind = "request"
	FetchConnect FetchKind = "connect"
	FetchTimeout FetchKind = "timeout"
	FetchStatus  FetchKind = "status"
	FetchRead    FetchKind = "read"
)

// FetchError reports a failed feed retrieval
type FetchError struct {
	URL        string
	Kind       FetchKind
	StatusCode int // set for FetchStatus
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a feed body that is not well-formed XML
type ParseError struct {
	FeedID string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed %s: %v", e.FeedID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractError reports an item missing a required element
type ExtractError struct {
	FeedID string
	Index  int // position of the item in the document, starting at 0
	Field  string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("feed %s: item %d: missing required element <%s>", e.FeedID, e.Index, e.Field)
}
