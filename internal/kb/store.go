package kb

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// csvHeader is the corpus column order. target_group is optional on read for
// backward compatibility with older corpus exports.
var csvHeader = []string{"category", "subcategory", "question", "answer", "target_group"}

// Store reads and rewrites the knowledge-base corpus file.
//
// The file is loaded wholesale at startup and rewritten wholesale after a
// successful rebuild. A cross-process file lock guards the rewrite so two
// service instances sharing a corpus file cannot interleave writes.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a corpus store for the given CSV path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the corpus file path.
func (s *Store) Path() string { return s.path }

// Load reads all corpus rows. Malformed rows (wrong column count) and rows
// with empty question/answer are skipped by the caller via kb.Load.
func (s *Store) Load() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) < 4 {
			continue
		}
		rec := Record{
			Category:    row[0],
			Subcategory: row[1],
			Question:    row[2],
			Answer:      row[3],
		}
		if len(row) > 4 {
			rec.TargetGroup = row[4]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save rewrites the corpus file with the given records. The write goes to a
// temp file in the same directory and is renamed into place under the file
// lock, so readers never observe a partial corpus.
func (s *Store) Save(records []Record) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire corpus lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create corpus directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".corpus-*.csv")
	if err != nil {
		return fmt.Errorf("create temp corpus: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(csvHeader)
	for _, rec := range records {
		if writeErr != nil {
			break
		}
		writeErr = w.Write([]string{rec.Category, rec.Subcategory, rec.Question, rec.Answer, rec.TargetGroup})
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write corpus: %w", writeErr)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace corpus: %w", err)
	}
	return nil
}

// isHeader reports whether a row is the corpus header line.
func isHeader(row []string) bool {
	return len(row) > 0 && row[0] == csvHeader[0]
}
