// Package properties reads and writes the "properties" text format: one
// key=value (or key:value) pair per line with backslash escapes, line
// continuations and #/! comment lines bound to the following key.
package properties

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	mprops "github.com/magiconair/properties"
)

// Entry is one parsed key with its value and the comment bound to it.
type Entry struct {
	Key     string
	Value   string
	Comment string
}

// File is the ordered content of a single properties file.
type File struct {
	Entries []Entry
}

// SyntaxError reports malformed properties content.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *SyntaxError) Unwrap() error { return e.Err }

var lineNumberRe = regexp.MustCompile(`(?i)line (\d+)`)

// Parse decodes UTF-8 properties content. Keys keep their first-seen
// order; a duplicate key keeps its slot and takes the last value.
// Placeholders like ${name} are returned verbatim.
func Parse(data []byte) (*File, error) {
	p, err := newLoader().LoadBytes(data)
	if err != nil {
		se := &SyntaxError{Err: err}
		if m := lineNumberRe.FindStringSubmatch(err.Error()); m != nil {
			se.Line, _ = strconv.Atoi(m[1])
		}
		return nil, se
	}

	comments := scanComments(string(data))
	f := &File{Entries: make([]Entry, 0, p.Len())}
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		f.Entries = append(f.Entries, Entry{
			Key:     key,
			Value:   value,
			Comment: comments[key],
		})
	}
	return f, nil
}

func newLoader() *mprops.Loader {
	return &mprops.Loader{Encoding: mprops.UTF8, DisableExpansion: true}
}

// scanComments maps each key to the comment block directly preceding it.
// Comment text keeps its indentation after the "# " marker and its inner
// blank lines. For a duplicate key the last non-empty block wins.
func scanComments(data string) map[string]string {
	comments := make(map[string]string)
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	var pending []string
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimLeft(line, " \t\f")
		switch {
		case trimmed == "":
			continue
		case trimmed[0] == '#' || trimmed[0] == '!':
			text := trimmed[1:]
			text = strings.TrimPrefix(text, " ")
			pending = append(pending, text)
			continue
		}

		logical := line
		for continues(line) && i+1 < len(lines) {
			i++
			line = strings.TrimRight(lines[i], "\r")
			logical += "\n" + line
		}

		key, ok := lineKey(logical)
		if ok {
			if c := joinComments(pending); c != "" {
				comments[key] = c
			}
		}
		pending = nil
	}
	return comments
}

// continues reports whether a line ends in an odd number of backslashes.
func continues(line string) bool {
	n := len(line) - len(strings.TrimRight(line, `\`))
	return n%2 == 1
}

// lineKey decodes the key of a single logical property line.
func lineKey(logical string) (string, bool) {
	p, err := newLoader().LoadBytes([]byte(logical))
	if err != nil || p.Len() == 0 {
		return "", false
	}
	return p.Keys()[0], true
}

// joinComments drops leading and trailing blank lines and keeps the rest
// verbatim.
func joinComments(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// Encoder writes properties entries. Call Flush when done.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteComment writes one "# " line per line of comment. Empty lines are
// written as a bare "#".
func (e *Encoder) WriteComment(comment string) error {
	comment = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(comment)
	for _, line := range strings.Split(comment, "\n") {
		out := "#\n"
		if line != "" {
			out = "# " + line + "\n"
		}
		if _, err := e.w.WriteString(out); err != nil {
			return err
		}
	}
	return nil
}

// WriteProperty writes a single key=value line.
func (e *Encoder) WriteProperty(key, value string) error {
	_, err := e.w.WriteString(EscapeKey(key) + "=" + EscapeValue(value) + "\n")
	return err
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// EscapeKey escapes a key so that it parses back unchanged.
func EscapeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch r {
		case ' ', '=', ':':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '#', '!':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		default:
			escapeCommon(&b, r)
		}
	}
	return b.String()
}

// EscapeValue escapes a value so that it parses back unchanged.
func EscapeValue(value string) string {
	var b strings.Builder
	leading := true
	for _, r := range value {
		if leading && (r == ' ' || r == '\t') {
			b.WriteByte('\\')
			if r == '\t' {
				b.WriteByte('t')
			} else {
				b.WriteRune(r)
			}
			continue
		}
		leading = false
		escapeCommon(&b, r)
	}
	return b.String()
}

func escapeCommon(b *strings.Builder, r rune) {
	switch r {
	case '\\':
		b.WriteString(`\\`)
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case '\f':
		b.WriteString(`\f`)
	default:
		if r < 0x20 {
			fmt.Fprintf(b, `\u%04x`, r)
			return
		}
		b.WriteRune(r)
	}
}
