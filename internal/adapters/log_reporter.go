package adapters

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ericmarkmartin/uv/internal/ports"
)

// LogReporter emits progress notifications as log events. zerolog loggers
// are safe for concurrent use, which the reporter contract requires.
type LogReporter struct {
	logger zerolog.Logger
}

func NewLogReporter() LogReporter {
	return LogReporter{logger: log.Logger}
}

func (r LogReporter) OnDownloadStart(locator string) {
	r.logger.Info().Str("locator", locator).Msg("downloading source")
}

func (r LogReporter) OnDownloadComplete(locator string) {
	r.logger.Info().Str("locator", locator).Msg("download complete")
}

func (r LogReporter) OnBuildStart(locator string) {
	r.logger.Info().Str("locator", locator).Msg("building source metadata")
}

func (r LogReporter) OnBuildComplete(locator string) {
	r.logger.Info().Str("locator", locator).Msg("build complete")
}

var _ ports.Reporter = LogReporter{}
