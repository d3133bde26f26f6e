package logging

import (
	"go.uber.org/zap"
)

// Logger is the process logger. It starts as a no-op until Setup succeeds.
var Logger = zap.NewNop()

// Setup replaces Logger. Debug selects zap's development config, which also enables debug
// entries such as per-include resolution. On failure Logger falls back to a stderr logger
// so errors are still reported.
func Setup(debug bool, appName, appVersion string) error {
	logger, err := New(debug, appName, appVersion)
	if err != nil {
		Logger = zap.NewExample()
		return err
	}

	Logger = logger
	zap.ReplaceGlobals(Logger)
	return nil
}

// New builds a logger tagged with the application name and version.
func New(debug bool, appName, appVersion string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}
	return cfg.Build()
}
