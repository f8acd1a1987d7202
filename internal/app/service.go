package app

import (
	"time"

	"github.com/ericmarkmartin/uv/internal/adapters"
	"github.com/ericmarkmartin/uv/internal/ports"
)

type Service struct {
	Manifest ports.ManifestPort
	Builder  ports.SourceBuildPort
	Reporter ports.Reporter
	Clock    func() time.Time
}

func NewService() Service {
	return Service{
		Manifest: adapters.NewRequirementsFileAdapter(),
		Builder:  adapters.NewSourceBuildAdapter(),
		Reporter: adapters.NewLogReporter(),
		Clock:    time.Now,
	}
}
