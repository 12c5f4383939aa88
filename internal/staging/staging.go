package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"echonexus/internal/config"
	"echonexus/internal/fileutil"
	"echonexus/internal/services"
)

// Stage writes the inbound document bytes into the staging directory and
// returns the tracked item. The staged filename is prefixed with the
// correlation id so parallel submissions never collide.
func Stage(cfg *config.Config, correlationID, filename string, r io.Reader, meta Metadata) (*Item, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return nil, services.Wrap(services.ErrIngestion, "staging", "stage",
			fmt.Sprintf("unusable filename %q", filename), nil)
	}
	if err := os.MkdirAll(cfg.Paths.StagingDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIngestion, "staging", "stage", "create staging directory", err)
	}

	meta.Normalize()
	path := filepath.Join(cfg.Paths.StagingDir, correlationID+"_"+name)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrIngestion, "staging", "stage", "create staged file", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return nil, services.Wrap(services.ErrIngestion, "staging", "stage", "write staged file", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, services.Wrap(services.ErrIngestion, "staging", "stage", "close staged file", err)
	}

	return &Item{
		CorrelationID: correlationID,
		SourcePath:    path,
		OriginalName:  name,
		Metadata:      meta,
	}, nil
}

// SanitizeFilename reduces a client-supplied filename to a safe basename.
// Path separators and parent references are stripped so staged files can
// never escape the staging directory.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Trim(name, ". ")
	if name == "" || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// Relocate moves the staged file to destDir under its original name and
// records the completed outcome on the item.
func Relocate(item *Item, destDir string) (string, error) {
	final := filepath.Join(destDir, item.OriginalName)
	if err := fileutil.MoveFile(item.SourcePath, final); err != nil {
		return "", fmt.Errorf("relocate %s: %w", item.CorrelationID, err)
	}
	item.Outcome = &Outcome{State: OutcomeCompleted, FinalPath: final}
	return final, nil
}

// Quarantine moves the staged file into the quarantine directory, keeping the
// correlation-prefixed name so repeated failures of the same document remain
// distinguishable. Reason is recorded on the item's outcome.
func Quarantine(cfg *config.Config, item *Item, reason string) (string, error) {
	dest := filepath.Join(cfg.Paths.QuarantineDir, item.CorrelationID+"_"+item.OriginalName)
	if err := fileutil.MoveFile(item.SourcePath, dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", item.CorrelationID, err)
	}
	item.Outcome = &Outcome{State: OutcomeQuarantined, FinalPath: dest, Reason: reason}
	return dest, nil
}
