package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/pkg/logger"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// EventFile is one pending event file with its raw payload
type EventFile struct {
	Name    string
	Payload []byte
}

// EventRepository owns the events directory. Pending event files sit at the
// directory root; the relay moves them to processed/ after publishing, or to
// failed/ once its attempts are exhausted. The file names embed a nanosecond
// timestamp so lexicographic order is emission order.
type EventRepository struct {
	dir    string
	logger logger.Logger
}

// NewEventRepository creates an EventRepository rooted at dir, creating the
// directory tree if needed
func NewEventRepository(dir string, logger logger.Logger) (*EventRepository, error) {
	for _, d := range []string{dir, filepath.Join(dir, processedDir), filepath.Join(dir, failedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	return &EventRepository{
		dir:    dir,
		logger: logger,
	}, nil
}

// Append writes a new event file. Writes go through a temp file and rename
// so poll-based consumers never see a partial event.
func (r *EventRepository) Append(event *models.StateChangeEvent) error {
	data, err := json.MarshalIndent(event, "", "  ")

	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	name := fmt.Sprintf("evt_%020d_%s.json", event.Timestamp.Time().UnixNano(), models.GenerateID("e"))
	tmp, err := os.CreateTemp(r.dir, name+".*.tmp")

	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(r.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}

// Pending returns up to limit pending event files, oldest first
func (r *EventRepository) Pending(limit int) ([]EventFile, error) {
	entries, err := os.ReadDir(r.dir)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	files := make([]EventFile, 0, len(names))

	for _, name := range names {
		payload, err := os.ReadFile(filepath.Join(r.dir, name))

		if err != nil {
			r.logger.Warn("Failed to read event file", "file", name, "error", err)
			continue
		}
		files = append(files, EventFile{Name: name, Payload: payload})
	}

	return files, nil
}

// MarkProcessed moves a published event file into processed/
func (r *EventRepository) MarkProcessed(name string) error {
	return r.move(name, processedDir)
}

// MarkFailed moves an exhausted event file into failed/
func (r *EventRepository) MarkFailed(name string) error {
	return r.move(name, failedDir)
}

// Failed lists the names of event files parked in failed/
func (r *EventRepository) Failed() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, failedDir))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var names []string

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

// Requeue moves a failed event file back to the pending root so the relay
// picks it up again
func (r *EventRepository) Requeue(name string) error {
	src := filepath.Join(r.dir, failedDir, filepath.Base(name))

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := os.Rename(src, filepath.Join(r.dir, filepath.Base(name))); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}

func (r *EventRepository) move(name, subdir string) error {
	src := filepath.Join(r.dir, filepath.Base(name))

	if err := os.Rename(src, filepath.Join(r.dir, subdir, filepath.Base(name))); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}
