package stats

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ExportFiles writes the series of report to csvPath and its metadata to metadataPath,
// then reads both back, echoes them to out and checks the csv reproduces the series.
func ExportFiles(report *Report, csvPath string, metadataPath string, out io.Writer) error {
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, report) }); err != nil {
		return err
	}
	if err := writeFile(metadataPath, func(w io.Writer) error { return WriteMetadata(w, report.Metadata) }); err != nil {
		return err
	}
	log.Infof("wrote %s and %s", csvPath, metadataPath)

	data, err := echoFile(csvPath, out)
	if err != nil {
		return err
	}
	blocks, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return errors.WithMessagef(err, "error reading back %s", csvPath)
	}
	if err := verifyBlocks(report, blocks); err != nil {
		return errors.WithMessagef(err, "%s does not match the collected stats", csvPath)
	}

	data, err = echoFile(metadataPath, out)
	if err != nil {
		return err
	}
	if _, err := ReadMetadata(bytes.NewReader(data)); err != nil {
		return errors.WithMessagef(err, "error reading back %s", metadataPath)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "error writing %s", path)
	}
	return errors.WithStack(f.Close())
}

func echoFile(path string, out io.Writer) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_, _ = fmt.Fprintf(out, "%s:\n%s\n", path, data)
	return data, nil
}

func verifyBlocks(report *Report, blocks []*Block) error {
	if len(blocks) != len(report.Series) {
		return errors.Errorf("expected %d blocks, found %d", len(report.Series), len(blocks))
	}
	for i, series := range report.Series {
		target, observed := series.Rows()
		block := blocks[i]
		if block.Key != series.Key || !reflect.DeepEqual(block.Target, target) || !reflect.DeepEqual(block.Observed, observed) {
			return errors.Errorf("block %d (%s, %s) differs", i, block.Instance, block.Shape)
		}
	}
	return nil
}
