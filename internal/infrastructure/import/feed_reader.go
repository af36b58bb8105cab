package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"
)

// Record is one data row of a feed with its 1-indexed line number
type Record struct {
	Line   int
	Fields []string
}

// FeedReader reads delimited bank and expense feeds. Rows may have any
// number of fields; columns are addressed by position, never by header name.
type FeedReader struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	skipHeader bool
	line       int
	records    int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ReaderOption is a functional option for FeedReader configuration
type ReaderOption func(*FeedReader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ReaderOption {
	return func(r *FeedReader) {
		r.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ReaderOption {
	return func(r *FeedReader) {
		r.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ReaderOption {
	return func(r *FeedReader) {
		r.trimSpace = trim
	}
}

// WithHeader makes the reader drop the first row
func WithHeader(hasHeader bool) ReaderOption {
	return func(r *FeedReader) {
		r.skipHeader = hasHeader
	}
}

// NewFeedReader creates a reader; a UTF-8 BOM is stripped and non UTF-8
// input is rejected
func NewFeedReader(r io.Reader, opts ...ReaderOption) (*FeedReader, error) {
	fr := &FeedReader{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
	}
	for _, opt := range opts {
		opt(fr)
	}

	fr.bufReader = bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	content, err := fr.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = fr.bufReader.Discard(3)
	}

	if err := validateUTF8(fr.bufReader); err != nil {
		return nil, err
	}

	fr.reader = csv.NewReader(fr.bufReader)
	fr.reader.Comma = fr.delimiter
	fr.reader.LazyQuotes = fr.lazyQuotes
	fr.reader.TrimLeadingSpace = fr.trimSpace
	fr.reader.FieldsPerRecord = -1
	return fr, nil
}

// NewFeedReaderFromBytes creates a reader over an in-memory feed
func NewFeedReaderFromBytes(data []byte, opts ...ReaderOption) (*FeedReader, error) {
	return NewFeedReader(bytes.NewReader(data), opts...)
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read feed for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return ErrEmptyFile
	}
	if len(content) == checkSize {
		// drop a rune cut by the peek window
		for i := 1; i <= utf8.UTFMax && i <= len(content); i++ {
			if utf8.RuneStart(content[len(content)-i]) {
				if !utf8.FullRune(content[len(content)-i:]) {
					content = content[:len(content)-i]
				}
				break
			}
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// Read returns the next non-empty record, or io.EOF
func (r *FeedReader) Read() (*Record, error) {
	for {
		fields, err := r.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		r.line, _ = r.reader.FieldPos(0)
		r.records++
		if r.records == 1 && r.skipHeader {
			continue
		}
		if r.trimSpace {
			for i := range fields {
				fields[i] = trimSpaces(fields[i])
			}
		}
		if isBlank(fields) {
			continue
		}
		return &Record{Line: r.line, Fields: fields}, nil
	}
}

// ReadAll reads every remaining non-empty record
func (r *FeedReader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, *rec)
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// trimSpaces trims ASCII whitespace and the ideographic space
func trimSpaces(s string) string {
	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}
	return s[start:end]
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '　':
		return true
	}
	return false
}
