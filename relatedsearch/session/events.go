package session

import (
	"time"
)

// Statement is a query as it was sent to the database.
type Statement struct {
	Query   string
	Params  []any
	Session DbSession
}

type QueryStartedEvent struct {
	Statement
}

// QueryEndedEvent fires once the database answered. For a single-row query Err stays nil;
// its error surfaces when the row is scanned.
type QueryEndedEvent struct {
	Statement
	ResponseTime time.Duration
	Err          error
}
