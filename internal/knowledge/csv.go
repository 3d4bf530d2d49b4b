package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"learnbot/internal/domain"
)

// The persisted table is UTF-8 CSV with header fields "soal" (question) and
// "jawaban" (answer), one row per entry, append-only. The header names are
// an external contract shared with other tools reading the same file.
const (
	columnQuestion = "soal"
	columnAnswer   = "jawaban"
)

var errEmptyQuestion = errors.New("empty question")

// readTable reads all rows. A missing file is not an error: it returns an
// empty table.
func readTable(path string) ([]domain.QAEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	qi, ai := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnQuestion:
			qi = i
		case columnAnswer:
			ai = i
		}
	}
	if qi < 0 || ai < 0 {
		return nil, fmt.Errorf("missing %q/%q header in %s", columnQuestion, columnAnswer, path)
	}

	var rows []domain.QAEntry
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if qi >= len(rec) || ai >= len(rec) {
			continue
		}
		rows = append(rows, domain.QAEntry{Question: rec[qi], Answer: rec[ai]})
	}
	return rows, nil
}

// appendRow appends one entry, writing the header first when the file is
// new or empty. Rows are never rewritten in place.
func appendRow(path string, question, answer string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write([]string{columnQuestion, columnAnswer}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{question, answer}); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// probeAppend opens the file for append and closes it again.
func probeAppend(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
