package generator

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/joeymeijers/fraudgen/internal/batch"
	"github.com/joeymeijers/fraudgen/internal/utils"
)

// BatchFileName returns the file name a batch with the given id is stored under.
func BatchFileName(batchID string) string {
	return fmt.Sprintf("batch_%s.csv", batchID)
}

// Save writes records as CSV to OutputDir/batch_<id>.csv and returns that path.
// The file only appears once it is completely written.
func (g *FraudDataGenerator) Save(records []Transaction, batchID string) (string, error) {
	if batchID == "" {
		return "", ErrEmptyBatchID
	}
	dir, err := utils.MakeDir(g.OutputDir)
	if err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, BatchFileName(batchID))
	tmpFile := path + ".tmp"
	if err := g.writeCSV(tmpFile, records); err != nil {
		utils.SafeRemove(tmpFile)
		return "", err
	}
	if err := os.Rename(tmpFile, path); err != nil {
		utils.SafeRemove(tmpFile)
		return "", err
	}
	utils.LogInfo("Saved %d transactions to %s", len(records), path)
	return path, nil
}

// SaveBatch satisfies batch.Generator.
func (g *FraudDataGenerator) SaveBatch(b batch.Batch, batchID string) (string, error) {
	records, ok := b.([]Transaction)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnexpectedBatch, b)
	}
	return g.Save(records, batchID)
}

func (g *FraudDataGenerator) writeCSV(path string, records []Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer utils.SafeClose(f)

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	w.UseCRLF = utils.GetNewline() == "\r\n"

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	var bar *pb.ProgressBar
	if g.Progress {
		bar = pb.New(len(records))
		if g.ProgressWriter != nil {
			bar.SetWriter(g.ProgressWriter)
		}
		bar.Start()
	}
	for _, r := range records {
		if err := w.Write(r.record()); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := utils.SafeFlush(bw); err != nil {
		return err
	}
	return f.Sync()
}

// LoadBatch reads a batch file written by Save.
func LoadBatch(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.SafeClose(f)

	r := csv.NewReader(bufio.NewReader(f))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) != len(csvHeader) || header[0] != csvHeader[0] {
		return nil, fmt.Errorf("unexpected header in %s: %v", path, header)
	}

	var records []Transaction
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		records = append(records, t)
	}
	return records, nil
}
