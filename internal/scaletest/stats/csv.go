package stats

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const headerPrefix = "Marathon: "

// Block is one series as written to the csv file.
type Block struct {
	Key
	Target   []string
	Observed []string
}

// Rows returns the target and observed rows of s as written by WriteCSV.
func (s *Series) Rows() (target []string, observed []string) {
	target = make([]string, len(s.Targets))
	for i, t := range s.Targets {
		target[i] = strconv.Itoa(t)
	}
	observed = make([]string, len(s.DeployTimes))
	for i, d := range s.DeployTimes {
		observed[i] = strconv.FormatFloat(d, 'f', -1, 64)
	}
	return
}

// WriteCSV writes one block per series: a "Marathon: <instance>, <shape>" header line,
// the target magnitudes, the deploy times in seconds and a blank line.
func WriteCSV(out io.Writer, report *Report) error {
	bw := bufio.NewWriter(out)
	w := csv.NewWriter(bw)
	for _, series := range report.Series {
		if _, err := fmt.Fprintf(bw, "%s%s, %s\n", headerPrefix, series.Instance, series.Shape); err != nil {
			return errors.WithStack(err)
		}
		target, observed := series.Rows()
		if err := w.Write(target); err != nil {
			return errors.WithStack(err)
		}
		if err := w.Write(observed); err != nil {
			return errors.WithStack(err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return errors.WithStack(err)
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(bw.Flush())
}

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(in io.Reader) ([]*Block, error) {
	var blocks []*Block
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNumber := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNumber++
		return strings.TrimRight(scanner.Text(), "\r"), true
	}
	for {
		line, ok := next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		key, err := parseHeader(line)
		if err != nil {
			return nil, errors.WithMessagef(err, "line %d", lineNumber)
		}
		block := &Block{Key: key}
		rows := make([][]string, 2)
		for i := range rows {
			line, ok := next()
			if !ok {
				return nil, errors.Errorf("line %d: unexpected end of block %s, %s", lineNumber, key.Instance, key.Shape)
			}
			rows[i], err = parseRow(line)
			if err != nil {
				return nil, errors.WithMessagef(err, "line %d", lineNumber)
			}
		}
		block.Target, block.Observed = rows[0], rows[1]
		blocks = append(blocks, block)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return blocks, nil
}

func parseHeader(line string) (Key, error) {
	if !strings.HasPrefix(line, headerPrefix) {
		return Key{}, errors.Errorf("expected header starting with %q, got %q", headerPrefix, line)
	}
	parts := strings.SplitN(strings.TrimPrefix(line, headerPrefix), ", ", 2)
	if len(parts) != 2 {
		return Key{}, errors.Errorf("malformed header %q", line)
	}
	return Key{Instance: parts[0], Shape: parts[1]}, nil
}

func parseRow(line string) ([]string, error) {
	if line == "" {
		return []string{}, nil
	}
	r := csv.NewReader(strings.NewReader(line))
	record, err := r.Read()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return record, nil
}
