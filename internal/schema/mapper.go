// Package schema reconciles vendor column names onto the canonical sales
// record fields.
package schema

import (
	"fmt"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// Canonical field names.
const (
	OrderID    = "Order_ID"
	Product    = "Product"
	Quantity   = "Quantity"
	Price      = "Price"
	OrderDate  = "Order_Date"
	Region     = "Region"
	CustomerID = "Customer_ID"

	// Sales is derived as Quantity × Price by the cleaner.
	Sales = "Sales"
	// SourceFile is the provenance column. It is never part of the canonical schema.
	SourceFile = "Source_File"
)

// Canonical is the ordered set of fields a table must carry to be treated as
// sales data.
var Canonical = []string{OrderID, Product, Quantity, Price, OrderDate, Region}

// Synonyms maps a normalized raw column name (lowercase, trimmed) to its
// canonical field.
var Synonyms = map[string]string{
	"order_id":       OrderID,
	"orderid":        OrderID,
	"invoice":        OrderID,
	"invoiceno":      OrderID,
	"transaction_id": OrderID,

	"product":      Product,
	"product_name": Product,
	"description":  Product,
	"stockcode":    Product,
	"item":         Product,

	"quantity": Quantity,
	"qty":      Quantity,
	"amount":   Quantity,

	"price":      Price,
	"unit_price": Price,
	"unitprice":  Price,
	"cost":       Price,

	"date":             OrderDate,
	"order_date":       OrderDate,
	"invoicedate":      OrderDate,
	"transaction_date": OrderDate,

	"region":   Region,
	"country":  Region,
	"location": Region,
	"area":     Region,

	"customer":    CustomerID,
	"customer_id": CustomerID,
	"customerid":  CustomerID,
}

// Collision selects what happens when two raw columns map to the same name.
type Collision string

const (
	// CollisionFail rejects the table with *SchemaConflictError.
	CollisionFail Collision = "fail"
	// CollisionFirst keeps the left-most source under the canonical name.
	CollisionFirst Collision = "first"
	// CollisionLast keeps the right-most source under the canonical name.
	CollisionLast Collision = "last"
)

// ParseCollision validates a configuration value. Empty means CollisionFail.
func ParseCollision(s string) (Collision, error) {
	switch c := Collision(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CollisionFail, nil
	case CollisionFail, CollisionFirst, CollisionLast:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (want fail, first or last)", s)
	}
}

// SchemaConflictError reports several raw columns mapping to one target.
type SchemaConflictError struct {
	File    string
	Target  string
	Sources []string
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("schema conflict in %s: columns %q all map to %s",
		e.File, e.Sources, e.Target)
}

// Pair is one raw-to-final rename.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Mapping records how each raw column was named in the mapped table, in
// raw column order.
type Mapping []Pair

// Renamed returns only the pairs whose name changed.
func (m Mapping) Renamed() Mapping {
	var out Mapping
	for _, p := range m {
		if p.From != p.To {
			out = append(out, p)
		}
	}
	return out
}

// Mapper renames columns onto canonical names.
type Mapper struct {
	// Synonyms overrides the package table when non-nil. Keys must already
	// be lowercase and trimmed.
	Synonyms  map[string]string
	Collision Collision
}

// NormalizeKey lowercases and trims a raw column name for synonym lookup.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Map returns a renamed copy of t with the provenance column set to source,
// and the applied mapping. t is not modified.
//
// Edge cases:
//   - Raw names that are not synonyms pass through verbatim.
//   - A raw column already named like a canonical field counts as mapping to
//     it, so "Product" and "Item" in one file collide.
//   - Repeated pass-through names get "_1", "_2", ... suffixes.
//   - An existing Source_File column is overwritten, not duplicated.
func (m Mapper) Map(t *table.Table, source string) (*table.Table, Mapping, error) {
	syn := m.Synonyms
	if syn == nil {
		syn = Synonyms
	}
	policy := m.Collision
	if policy == "" {
		policy = CollisionFail
	}

	targets := make([]string, len(t.Columns))
	groups := map[string][]int{}
	for i, c := range t.Columns {
		to := c
		if canon, ok := syn[NormalizeKey(c)]; ok {
			to = canon
		}
		targets[i] = to
		groups[to] = append(groups[to], i)
	}

	winners := map[int]bool{}
	for _, target := range orderedTargets(targets) {
		idx := groups[target]
		if len(idx) < 2 || !isCanonical(target, syn) {
			continue
		}
		switch policy {
		case CollisionFirst:
			winners[idx[0]] = true
		case CollisionLast:
			winners[idx[len(idx)-1]] = true
		default:
			srcs := make([]string, len(idx))
			for k, i := range idx {
				srcs[k] = t.Columns[i]
			}
			return nil, nil, &SchemaConflictError{File: source, Target: target, Sources: srcs}
		}
	}

	out := t.Clone()
	out.Columns = uniquify(targets, winners)

	mapping := make(Mapping, len(t.Columns))
	for i, c := range t.Columns {
		mapping[i] = Pair{From: c, To: out.Columns[i]}
	}

	prov := table.Str(source)
	if i := out.Index(SourceFile); i >= 0 {
		for _, row := range out.Rows {
			row[i] = prov
		}
	} else {
		out.AddColumn(SourceFile, prov)
	}
	return out, mapping, nil
}

// IsSalesSchema reports whether every canonical field is among columns.
func IsSalesSchema(columns []string) bool {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, c := range Canonical {
		if !have[c] {
			return false
		}
	}
	return true
}

func isCanonical(name string, syn map[string]string) bool {
	for _, v := range syn {
		if v == name {
			return true
		}
	}
	return false
}

func orderedTargets(targets []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range targets {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// uniquify resolves repeated names. Indices in first claim their name
// outright; every other repeat keeps the name on its first occurrence and
// later occurrences get the smallest free "_<n>" suffix.
func uniquify(names []string, first map[int]bool) []string {
	out := make([]string, len(names))
	all := make(map[string]bool, len(names))
	for _, n := range names {
		all[n] = true
	}
	taken := make(map[string]bool, len(names))
	for i := range names {
		if first[i] {
			out[i] = names[i]
			taken[names[i]] = true
		}
	}
	for i, n := range names {
		if first[i] {
			continue
		}
		if !taken[n] {
			out[i] = n
			taken[n] = true
			continue
		}
		for k := 1; ; k++ {
			cand := fmt.Sprintf("%s_%d", n, k)
			if !taken[cand] && !all[cand] {
				out[i] = cand
				taken[cand] = true
				break
			}
		}
	}
	return out
}
