// =============================================================================
// Legacy Mongo Migrator - File Manager Utility
// =============================================================================
//
// File management utilities for the migrator:
//   - Directory management
//   - Input batch archival (moving processed exports)
//   - Dry-run preview log generation
//
// ARCHIVAL STRATEGY:
//   - Batch files are moved to the input archive after a successful real run
//   - Dry runs never archive, so the same inputs can be replayed
//   - Failed runs leave their inputs in place
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// =============================================================================
// INPUT ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed batch file to the archive directory and
// returns the archived path.
func ArchiveInputFile(filePath, archiveDir string) (string, error) {
	if err := EnsureDir(archiveDir); err != nil {
		return "", err
	}
	archivePath := filepath.Join(archiveDir, filepath.Base(filePath))

	// Move the file. If rename fails (e.g., cross-device), copy and delete.
	if err := os.Rename(filePath, archivePath); err != nil {
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

// =============================================================================
// DRY-RUN PREVIEW LOG
// =============================================================================

// WritePreviewLog writes the dry-run preview lines to a timestamped file in
// the output directory and returns its path.
func WritePreviewLog(lines []string, outputDir, runID string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}
	name := fmt.Sprintf("dry_run_%s_%s.log", time.Now().Format("20060102_150405"), runID)
	path := filepath.Join(outputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create preview log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Dry Run Preview - run %s\n", runID)
	fmt.Fprintf(writer, "Pending Operations: %d\n", len(lines))
	writer.WriteString("================================================================================\n")
	for _, line := range lines {
		writer.WriteString(line)
		writer.WriteByte('\n')
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush preview log: %w", err)
	}
	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
