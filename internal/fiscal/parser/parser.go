// Package parser turns raw CT-e and NF-e fiscal XML into normalized
// store records. Real world batches carry namespace prefixes, stray
// encodings and half broken markup, so parsing is tolerant by default:
// tag lookup ignores namespaces and the reader recovers from malformed
// input instead of failing hard.
package parser

import (
	"io"
	"strings"
	"time"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/classify"
	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

type Severity int

const (
	// SeverityError marks a file that could not be ingested.
	SeverityError Severity = iota
	// SeverityInfo marks an expected non-document (e.g. an event
	// notification), reported but not counted as a defect.
	SeverityInfo
)

// ParseError is the tagged failure result of parsing one file.
type ParseError struct {
	Severity Severity
	Message  string
}

func (e *ParseError) Error() string {
	return e.Message
}

func errorf(msg string) *ParseError {
	return &ParseError{Severity: SeverityError, Message: msg}
}

func infof(msg string) *ParseError {
	return &ParseError{Severity: SeverityInfo, Message: msg}
}

type Parser struct {
	// Permissive enables recovery parsing of malformed XML.
	Permissive bool

	classifier *classify.Classifier
}

func New(classifier *classify.Classifier) *Parser {
	return &Parser{Permissive: true, classifier: classifier}
}

// charsetReader decodes the legacy single byte encodings that still show
// up in fiscal XML. Unknown charsets pass through undecoded.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return input, nil
}

func (p *Parser) read(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = p.Permissive
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

// findText returns the trimmed text of the first element matched by
// path, or "" when absent. etree paths match the local tag name, which
// gives the namespace oblivious lookup the documents require.
func findText(e *etree.Element, path string) string {
	if e == nil {
		return ""
	}
	found := e.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

// brDate converts the leading date of a dhEmi timestamp (yyyy-mm-dd...)
// to dd/mm/yyyy display form, keeping the raw prefix when unparseable.
func brDate(dh string) string {
	if len(dh) < 10 {
		return dh
	}
	d := dh[:10]
	if t, err := time.Parse("2006-01-02", d); err == nil {
		return t.Format("02/01/2006")
	}
	return d
}
