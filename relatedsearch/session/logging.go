package session

import (
	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/disposable"
)

// LogQueries writes every finished query of s to logger at debug level, failed ones at
// error level.
func LogQueries(s EventfulSession, logger zerolog.Logger) disposable.Disposable {
	return s.OnQueryEnded().Attach(func(e QueryEndedEvent) {
		event := logger.Debug()
		if e.Err != nil {
			event = logger.Error().Err(e.Err)
		}
		event.
			Str("sql", e.Query).
			Interface("params", e.Params).
			Dur("response_time", e.ResponseTime).
			Msg("query")
	}, "session.LogQueries")
}
