package main

import (
	"log"
	"os"
	"strings"

	"amalgam/cmd"
	"amalgam/pkg/logging"
	"amalgam/pkg/version"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	// The logger must exist before flag parsing so parse errors are reported.
	if err := logging.Setup(false, "amalgam", version.Get().Version); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		logging.Logger.Fatal("amalgam execution failed", zap.Error(err))
	}

	// Syncing a console stderr fails with "invalid argument" on some platforms.
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logging.Logger.Sync(); syncErr != nil {
			lowerErr := strings.ToLower(syncErr.Error())
			if !strings.Contains(lowerErr, "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
