package chain

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Generate flattens the eligible set and writes the result to outputPath, replacing any
// existing file. Nothing is written when a circular include is found.
func (fc *FileChain) Generate(outputPath string) (Stats, error) {
	data, stats, err := fc.Render()
	if err != nil {
		return stats, err
	}

	if err := ensureDirectory(filepath.Dir(outputPath), fc.logger); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeOutput(outputPath, data, fc.logger); err != nil {
		return stats, fmt.Errorf("failed to write output file: %w", err)
	}

	fc.logger.Info("Generated output",
		zap.String("outputFile", outputPath),
		zap.Int("totalFiles", stats.Files),
		zap.Int("bytes", stats.Bytes))
	return stats, nil
}

func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

func writeOutput(path string, data []byte, logger *zap.Logger) (err error) {
	outFile, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", path), zap.Error(err))
		return err
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil && err == nil {
			logger.Error("Failed to close output file", zap.String("file", path), zap.Error(closeErr))
			err = closeErr
		}
	}()

	writer := bufio.NewWriter(outFile)
	if _, err := writer.Write(data); err != nil {
		logger.Error("Failed to write output file", zap.String("file", path), zap.Error(err))
		return err
	}
	return writer.Flush()
}
