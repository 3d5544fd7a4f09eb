// Package couriercommon holds the small pieces shared across the courier
// daemon's packages.
package couriercommon

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultConfigFile is the config file name looked up when -config is not
// given.
const DefaultConfigFile = "courier.conf"

// InitLogger installs the global zerolog logger: Unix-ms timestamps on
// stderr, debug level when COURIER_DEBUG is set.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	level := zerolog.InfoLevel
	if os.Getenv("COURIER_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
