package leads

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
)

// CSVBackend appends leads to a CSV file with a header row written on first use.
type CSVBackend struct {
	mu   sync.Mutex
	path string
}

func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{path: path}
}

func (b *CSVBackend) Name() string { return BackendCSV }

func (b *CSVBackend) Write(ctx context.Context, lead contractx.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create dir: %v", contractx.ErrLeadWrite, err)
		}
	}

	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", contractx.ErrLeadWrite, b.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", contractx.ErrLeadWrite, b.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(contractx.LeadColumns); err != nil {
			return fmt.Errorf("%w: write header: %v", contractx.ErrLeadWrite, err)
		}
	}
	if err := w.Write(leadRecord(lead)); err != nil {
		return fmt.Errorf("%w: write row: %v", contractx.ErrLeadWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %v", contractx.ErrLeadWrite, err)
	}
	return nil
}

// Count is the number of data rows; a missing file holds zero leads.
func (b *CSVBackend) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		rows++
	}
	if rows == 0 {
		return 0, nil
	}
	return rows - 1, nil
}

func leadRecord(l contractx.Lead) []string {
	return []string{
		l.Timestamp.Format(time.RFC3339Nano),
		strconv.FormatInt(l.ChatID, 10),
		l.ClientName,
		l.Contact,
		l.Intent,
		l.Notes,
		l.Source,
		l.Status,
	}
}
