package output

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/magiconair/properties"
)

// FormatProperties renders props as a Java properties file, one key=value
// line per entry sorted by key. The output is plain ASCII: anything outside
// printable ASCII is written as a \uXXXX escape, so the file reads the same
// through Properties.load(InputStream) (ISO-8859-1) and UTF-8 readers.
func FormatProperties(props map[string]string) []byte {
	doc := properties.NewProperties()
	doc.DisableExpansion = true
	for k, v := range props {
		doc.Set(k, v)
	}
	doc.Sort()

	var buf bytes.Buffer
	for _, k := range doc.Keys() {
		v, _ := doc.Get(k)
		fmt.Fprintf(&buf, "%s=%s\n", escapeProperty(k, true), escapeProperty(v, false))
	}
	return buf.Bytes()
}

// escapeProperty escapes s the way java.util.Properties.store does. Keys
// escape every space; values only a leading one.
func escapeProperty(s string, key bool) string {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\f':
			b.WriteString(`\f`)
		case '=', ':', '#', '!':
			b.WriteByte('\\')
			b.WriteRune(r)
		case ' ':
			if key || i == 0 {
				b.WriteString(`\ `)
			} else {
				b.WriteByte(' ')
			}
		default:
			if r < 0x20 || r > 0x7e {
				for _, unit := range utf16.Encode([]rune{r}) {
					fmt.Fprintf(&b, `\u%04X`, unit)
				}
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WriteProperties writes props to path, replacing the file atomically.
func WriteProperties(path string, props map[string]string) error {
	if err := replaceFile(path, FormatProperties(props)); err != nil {
		return fmt.Errorf("failed to write properties file %s: %w", path, err)
	}
	return nil
}
