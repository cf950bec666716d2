package tabular

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"langprops/internal/propset"
)

const (
	csvSeparator = ';'
	csvQuote     = '"'
	csvEscape    = '\\'
)

// CSV imports and exports ';'-separated files. Quoted fields use '\' to
// escape quotes and may span several lines.
type CSV struct{}

func NewCSV() *CSV { return &CSV{} }

func (c *CSV) CanHandle(ext string) bool {
	return ext == ".csv"
}

func (c *CSV) Import(ctx context.Context, path string, progress ProgressFunc) ([]*propset.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}

	r := newCSVReader(bytes.NewReader(stripBOM(data)))
	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &propset.ParseError{File: path, Row: r.recordLine, Err: err}
		}
		rows = append(rows, row)
	}

	records, err := importRows(ctx, path, rows, progress)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("records", len(records)).Msg("Imported CSV")
	return records, nil
}

func (c *CSV) Export(ctx context.Context, records []*propset.Record, path string, overwrite bool, progress ProgressFunc) error {
	if err := checkOverwrite(path, overwrite); err != nil {
		return err
	}

	table := newExportTable(records)
	var buf bytes.Buffer
	w := newCSVWriter(&buf)
	w.Write(table.header)
	for i, r := range table.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.Write(table.row(r))
		progress.report(i+1, len(table.records))
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	log.Info().Str("file", path).Int("records", len(table.records)).Msg("Exported CSV")
	return nil
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}

// csvReader reads records in the separator/quote/escape dialect above.
type csvReader struct {
	r          *bufio.Reader
	line       int
	recordLine int
}

func newCSVReader(r io.Reader) *csvReader {
	return &csvReader{r: bufio.NewReader(r), line: 1}
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (c *csvReader) Read() ([]string, error) {
	c.recordLine = c.line
	if _, _, err := c.r.ReadRune(); err != nil {
		return nil, io.EOF
	}
	c.r.UnreadRune()

	var (
		fields []string
		field  strings.Builder
	)
	for {
		ch, _, err := c.r.ReadRune()
		if err != nil {
			return append(fields, field.String()), nil
		}

		switch {
		case ch == csvQuote && field.Len() == 0:
			if err := c.readQuoted(&field); err != nil {
				return nil, err
			}
			next, _, err := c.r.ReadRune()
			switch {
			case err != nil:
				return append(fields, field.String()), nil
			case next == csvSeparator:
				fields = append(fields, field.String())
				field.Reset()
			case next == '\n':
				c.line++
				return append(fields, field.String()), nil
			case next == '\r':
				c.skipLF()
				return append(fields, field.String()), nil
			default:
				return nil, fmt.Errorf("unexpected %q after closing quote", next)
			}
		case ch == csvSeparator:
			fields = append(fields, field.String())
			field.Reset()
		case ch == '\n':
			c.line++
			return append(fields, field.String()), nil
		case ch == '\r':
			c.skipLF()
			return append(fields, field.String()), nil
		default:
			field.WriteRune(ch)
		}
	}
}

// readQuoted consumes a quoted field up to and including its closing quote.
func (c *csvReader) readQuoted(field *strings.Builder) error {
	for {
		ch, _, err := c.r.ReadRune()
		if err != nil {
			return fmt.Errorf("unterminated quoted field")
		}
		switch ch {
		case csvEscape:
			next, _, err := c.r.ReadRune()
			if err != nil {
				return fmt.Errorf("unterminated escape sequence")
			}
			if next == '\n' {
				c.line++
			}
			field.WriteRune(next)
		case csvQuote:
			next, _, err := c.r.ReadRune()
			if err == nil && next == csvQuote {
				field.WriteRune(csvQuote)
				continue
			}
			if err == nil {
				c.r.UnreadRune()
			}
			return nil
		case '\n':
			c.line++
			field.WriteRune(ch)
		default:
			field.WriteRune(ch)
		}
	}
}

func (c *csvReader) skipLF() {
	c.line++
	if next, _, err := c.r.ReadRune(); err == nil && next != '\n' {
		c.r.UnreadRune()
	}
}

// csvWriter writes records in the same dialect the reader accepts.
type csvWriter struct {
	w io.Writer
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: w}
}

func (c *csvWriter) Write(fields []string) {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteRune(csvSeparator)
		}
		if !strings.ContainsAny(f, string([]rune{csvSeparator, csvQuote, csvEscape, '\n', '\r'})) {
			b.WriteString(f)
			continue
		}
		b.WriteRune(csvQuote)
		for _, ch := range f {
			if ch == csvQuote || ch == csvEscape {
				b.WriteRune(csvEscape)
			}
			b.WriteRune(ch)
		}
		b.WriteRune(csvQuote)
	}
	b.WriteByte('\n')
	io.WriteString(c.w, b.String())
}
