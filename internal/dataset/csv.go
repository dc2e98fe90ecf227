package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// sniffBytes is how much of the input is inspected to pick a delimiter.
const sniffBytes = 64 * 1024

var (
	ErrEmptyInput  = errors.New("empty csv input")
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")
)

// candidate delimiters, in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the delimiter that occurs most often in the first
// lines of data, ignoring quoted sections. Ties go to the earlier candidate,
// so plain comma files always resolve to ','.
func DetectDelimiter(data []byte) rune {
	if len(data) > sniffBytes {
		data = data[:sniffBytes]
	}

	counts := make(map[rune]int, len(delimiters))
	lines, inQuote := 0, false
	for _, b := range data {
		if b == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if b == '\n' {
			lines++
			if lines >= 5 {
				break
			}
			continue
		}
		counts[rune(b)]++
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// ReadCSV loads a header row plus records as string cells. The delimiter is
// sniffed from the input and a UTF-8 byte order mark is dropped.
func ReadCSV(r io.Reader) (*Dataset, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	peek, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(bytes.TrimSpace(peek)) == 0 {
		return nil, ErrEmptyInput
	}
	if bytes.HasPrefix(peek, []byte("\xef\xbb\xbf")) {
		if _, err := br.Discard(3); err != nil {
			return nil, fmt.Errorf("failed to skip byte order mark: %w", err)
		}
		peek = peek[3:]
	}

	reader := csv.NewReader(br)
	reader.Comma = DetectDelimiter(peek)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	if err := validUTF8(header, 1); err != nil {
		return nil, err
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if err := validUTF8(record, len(records)+2); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return FromRecords(header, records)
}

// validUTF8 checks fields after parsing, so a rune split across read
// buffers is never mistaken for bad input.
func validUTF8(fields []string, line int) error {
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return fmt.Errorf("%w (record %d)", ErrInvalidUTF8, line)
		}
	}
	return nil
}

// ReadFile opens path and reads it with ReadCSV.
func ReadFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	d, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// WriteCSV serializes d as comma separated UTF-8 with a header row. Missing
// cells are written as empty fields.
func WriteCSV(w io.Writer, d *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for r := 0; r < d.NumRows(); r++ {
		if err := writer.Write(d.Row(r)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes d to path with WriteCSV.
func WriteFile(path string, d *Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteCSV(file, d); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
