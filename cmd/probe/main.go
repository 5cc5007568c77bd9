// Command probe loads one input table and prints what the pipeline would see:
// the decoded encoding, the column mapping onto the canonical sales schema,
// and the inferred type of every column.
//
// It is a diagnostic for files that fail or merge unexpectedly. Nothing is
// cleaned or written.
//
// Output modes
//
//   - Default: a short text report on stdout.
//   - -json: the same information as one JSON object.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/datasource/file"
	"github.com/Odelialan/Sales-Data-Analysis/internal/loader"
	"github.com/Odelialan/Sales-Data-Analysis/internal/probe"
	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
)

type result struct {
	File        string                `json:"file"`
	Format      string                `json:"format"`
	Encoding    string                `json:"encoding"`
	Sheet       string                `json:"sheet,omitempty"`
	Rows        int                   `json:"rows"`
	IsSalesData bool                  `json:"is_sales_data"`
	Mapping     []schema.Pair         `json:"mapping"`
	Columns     []probe.ColumnProfile `json:"columns"`
}

func main() {
	var (
		// flagFile is the local path of one .csv or .xlsx file.
		flagFile = flag.String("file", "", "path of the .csv or .xlsx file to probe")

		// flagEncodings overrides the trial order for delimited text.
		flagEncodings = flag.String("encodings", strings.Join(loader.DefaultEncodings, ","), "comma-separated encoding trial order")

		// flagCollision is the mapping collision policy, as in the pipeline config.
		flagCollision = flag.String("collision", "fail", "column mapping collision policy: fail|first|last")

		flagJSON = flag.Bool("json", false, "print JSON instead of text")
	)
	flag.Parse()

	if strings.TrimSpace(*flagFile) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(2)
	}
	if !file.Supported(*flagFile) {
		fatalf("unsupported file %q (want .csv or .xlsx)", *flagFile)
	}
	collision, err := schema.ParseCollision(*flagCollision)
	if err != nil {
		fatalf("%v", err)
	}

	t, info, err := loader.Load(*flagFile, loader.Options{Encodings: splitCSV(*flagEncodings)})
	if err != nil {
		fatalf("load: %v", err)
	}

	res := result{
		File:     *flagFile,
		Format:   info.Format,
		Encoding: info.Encoding,
		Sheet:    info.Sheet,
		Rows:     t.Len(),
		Columns:  probe.Infer(t),
	}
	mapped, mapping, err := schema.Mapper{Collision: collision}.Map(t, *flagFile)
	if err != nil {
		fatalf("map: %v", err)
	}
	res.Mapping = mapping
	res.IsSalesData = schema.IsSalesSchema(mapped.Columns)

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fatalf("encode: %v", err)
		}
		return
	}

	fmt.Printf("file: %s\n", res.File)
	fmt.Printf("format: %s\n", res.Format)
	fmt.Printf("encoding: %s\n", res.Encoding)
	if res.Sheet != "" {
		fmt.Printf("sheet: %s\n", res.Sheet)
	}
	fmt.Printf("sales schema: %t\n", res.IsSalesData)
	fmt.Println("mapping:")
	renamed := mapping.Renamed()
	if len(renamed) == 0 {
		fmt.Println("  (no columns renamed)")
	}
	for _, p := range renamed {
		fmt.Printf("  %s -> %s\n", p.From, p.To)
	}
	fmt.Print(probe.Render(res.Columns, res.Rows))
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
