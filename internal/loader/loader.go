// Package loader reads one input file into a table, resolving its format
// from the extension and, for delimited text, its character encoding from an
// ordered trial list.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	csvparser "github.com/Odelialan/Sales-Data-Analysis/internal/parser/csv"
	"github.com/Odelialan/Sales-Data-Analysis/internal/parser/xlsx"
	"github.com/Odelialan/Sales-Data-Analysis/internal/probe"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// DefaultEncodings is the trial order for delimited text.
var DefaultEncodings = []string{"utf-8", "gbk", "latin-1"}

// UnsupportedFormatError reports an extension the loader cannot read.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: %s", e.Ext, e.Path)
}

// DecodeError reports that no encoding in the trial list decoded the file cleanly.
type DecodeError struct {
	Path  string
	Tried []string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s with any of [%s]", e.Path, strings.Join(e.Tried, ", "))
}

// Options controls Load. The zero value uses DefaultEncodings and default
// CSV parsing.
type Options struct {
	Encodings []string
	CSV       csvparser.Options
}

// Info describes how a file was read.
type Info struct {
	Format   string // "csv" or "xlsx"
	Encoding string // encoding name for csv, "xlsx" for workbooks
	Sheet    string
	Size     int64
}

// Load reads path into a table. Numeric columns are typed as table.Number;
// everything else stays Text until cleaning.
//
// Errors:
//   - *UnsupportedFormatError for extensions other than .csv/.xlsx.
//   - *DecodeError when every configured encoding fails.
//   - I/O and parse errors wrapped with the path.
func Load(path string, opt Options) (*table.Table, Info, error) {
	var info Info
	st, err := os.Stat(path)
	if err != nil {
		return nil, info, fmt.Errorf("stat %s: %w", path, err)
	}
	info.Size = st.Size()

	var t *table.Table
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		info.Format = "csv"
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, info, fmt.Errorf("read %s: %w", path, err)
		}
		text, enc, err := Decode(raw, opt.encodings())
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Path = path
			}
			return nil, info, err
		}
		info.Encoding = enc
		t, err = csvparser.ReadTable(strings.NewReader(text), opt.CSV)
		if err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".xlsx":
		info.Format = "xlsx"
		info.Encoding = "xlsx"
		t, info.Sheet, err = xlsx.ReadFile(path)
		if err != nil {
			return nil, info, fmt.Errorf("load %s: %w", path, err)
		}
	default:
		return nil, info, &UnsupportedFormatError{Path: path, Ext: ext}
	}

	probe.Type(t)
	return t, info, nil
}

func (o Options) encodings() []string {
	if len(o.Encodings) == 0 {
		return DefaultEncodings
	}
	return o.Encodings
}

// Decode converts raw bytes to UTF-8 text using the first encoding in names
// that decodes cleanly, and returns that encoding's name. Clean means the
// output is valid UTF-8 with no replacement characters. A UTF-8 BOM is removed.
func Decode(raw []byte, names []string) (string, string, error) {
	tried := make([]string, 0, len(names))
	for _, name := range names {
		tried = append(tried, name)
		enc, err := lookup(name)
		if err != nil {
			continue
		}
		out, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return strings.TrimPrefix(string(out), "\uFEFF"), name, nil
	}
	return "", "", &DecodeError{Tried: tried}
}

// lookup maps configuration names to x/text encodings.
func lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8":
		return strictUTF8{}, nil
	case "utf-8-sig":
		return unicode.UTF8BOM, nil
	case "gbk", "cp936":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// KnownEncoding reports whether name is accepted in a trial list.
func KnownEncoding(name string) bool {
	_, err := lookup(name)
	return err == nil
}
