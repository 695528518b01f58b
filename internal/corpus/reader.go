package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docent-ai/docent/internal/log"
)

// initMarker is a Python package marker, not corpus content.
const initMarker = "__init__.py"

// ReadReport summarizes one directory scan.
type ReadReport struct {
	Files   int // regular files considered
	Parsed  int // documents that yielded a chunk
	Dropped int // markup files missing front matter
}

// Reader builds datasets from corpus directories.
type Reader struct {
	logger log.Logger
}

func NewReader(logger log.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read builds a dataset from every regular file directly under dir.
// Subdirectories are not descended into. Markup files without front matter
// are dropped and counted in the report; an unreadable file fails the scan.
func (r *Reader) Read(dir, datasetID string) (Dataset, ReadReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Dataset{}, ReadReport{}, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	ds := Dataset{ID: datasetID}
	var report ReadReport

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == initMarker {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return Dataset{}, ReadReport{}, fmt.Errorf("reading corpus file %s: %w", name, err)
		}
		report.Files++

		doc, err := Parse(name, string(raw))
		if err != nil {
			if errors.Is(err, ErrNoFrontMatter) {
				report.Dropped++
				r.logger.Warn("dropping file without front matter",
					"dataset", datasetID, "file", name)
				continue
			}
			return Dataset{}, ReadReport{}, fmt.Errorf("parsing corpus file %s: %w", name, err)
		}

		report.Parsed++
		ds.Chunks = append(ds.Chunks, doc.Chunk())
	}

	r.logger.Debug("corpus directory read",
		"dataset", datasetID, "dir", dir,
		"files", report.Files, "parsed", report.Parsed, "dropped", report.Dropped)

	return ds, report, nil
}
