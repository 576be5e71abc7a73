package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/finance-metrics/internal/domain"
)

// Separator is the field delimiter of the transactions export.
const Separator = ','

// ParseStats describes what the parser saw while reading a dataset.
type ParseStats struct {
	Rows           int      `json:"rows"`
	BlankLines     int      `json:"blank_lines"`
	ShortRows      int      `json:"short_rows"`
	ExtraFieldRows int      `json:"extra_field_rows"`
	UnknownColumns []string `json:"unknown_columns,omitempty"`
}

// Parser turns delimited text into transaction records.
// A Parser is not safe for concurrent use; create one per dataset.
type Parser struct {
	stats ParseStats
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Stats returns the statistics of the last Parse call.
func (p *Parser) Stats() ParseStats {
	return p.stats
}

// ParseTransactions parses a whole dataset with a fresh Parser.
func ParseTransactions(r io.Reader) ([]domain.Transaction, error) {
	return NewParser().Parse(r)
}

// Parse reads the header line and every non-blank data line from r.
// Malformed rows never fail the parse; only read errors are returned.
func (p *Parser) Parse(r io.Reader) ([]domain.Transaction, error) {
	p.stats = ParseStats{}
	br := bufio.NewReaderSize(r, readBufferSize)

	header, err := readLine(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("Parse: reading header: %w", err)
	}
	header = strings.TrimPrefix(header, "\ufeff")
	if strings.TrimSpace(header) == "" {
		return nil, nil
	}

	columns := ParseLine(header)
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	binding := bindHeader(columns)
	p.stats.UnknownColumns = binding.unknown

	var txs []domain.Transaction
	for !errors.Is(err, io.EOF) {
		var line string
		line, err = readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("Parse: reading line %d: %w", p.stats.Rows+p.stats.BlankLines+2, err)
		}
		if strings.TrimSpace(line) == "" {
			if line != "" || err == nil {
				p.stats.BlankLines++
			}
			continue
		}

		values := ParseLine(line)
		switch {
		case len(values) < len(columns):
			p.stats.ShortRows++
		case len(values) > len(columns):
			p.stats.ExtraFieldRows++
		}

		var tx domain.Transaction
		binding.assign(&tx, values)
		txs = append(txs, tx)
		p.stats.Rows++
	}

	return txs, nil
}

// readLine returns the next line without its terminator. The final line of
// the input is returned together with io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}

// ParseLine splits one line into fields. A double quote toggles quoting, a
// doubled quote inside a quoted section is a literal quote, and separators
// inside quotes belong to the field.
func ParseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == Separator && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	return append(fields, current.String())
}

// FormatLine joins fields into one line that ParseLine reads back unchanged.
func FormatLine(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(Separator)
		}
		if !strings.ContainsAny(f, string(Separator)+"\"\r\n") {
			b.WriteString(f)
			continue
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	return b.String()
}
