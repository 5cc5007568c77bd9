// Package builtin contains small, reusable row helpers used by the cleaner.
package builtin

import (
	"crypto/sha256"
	"strconv"
	"strings"
	"time"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// DefaultSeparator is the ASCII Unit Separator placed between cells.
const DefaultSeparator = "\x1f"

// RowHash computes a deterministic SHA-256 over every cell of row.
//
// Canonicalization rules:
//   - Cells are concatenated in column order using DefaultSeparator.
//   - Each cell is prefixed with a one-byte kind tag, so the number 1 and the
//     text "1" hash differently.
//   - Missing is encoded as a single NUL byte, distinct from empty text.
//   - Numbers use the shortest round-trip form; dates use RFC3339Nano in UTC.
//
// Two rows hash equal exactly when they are cell-wise Equal (barring
// SHA-256 collisions).
func RowHash(row []table.Value) [sha256.Size]byte {
	var b strings.Builder
	b.Grow(len(row) * 16)

	for i, v := range row {
		if i > 0 {
			b.WriteString(DefaultSeparator)
		}
		appendCanonicalValue(&b, v)
	}
	return sha256.Sum256([]byte(b.String()))
}

func appendCanonicalValue(b *strings.Builder, v table.Value) {
	switch v.Kind() {
	case table.Number:
		f, _ := v.Float()
		b.WriteByte('n')
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case table.Text:
		s, _ := v.Text()
		b.WriteByte('s')
		b.WriteString(s)
	case table.Date:
		t, _ := v.Date()
		b.WriteByte('d')
		b.WriteString(t.UTC().Format(time.RFC3339Nano))
	default:
		b.WriteByte('\x00')
	}
}
