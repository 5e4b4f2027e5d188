package faq

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kotae-ai/kotae/internal/model"
)

// LoadCSV reads FAQ entries from a CSV file with an id,question,answer
// and optional category column. Rows with an empty question or answer are
// skipped; a missing id falls back to the row's position so every entry
// stays addressable.
func LoadCSV(path string) ([]model.FAQEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("faq: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return parseCSV(f)
}

// Parse reads FAQ entries from CSV data, e.g. an upload body.
func Parse(r io.Reader) ([]model.FAQEntry, error) {
	return parseCSV(r)
}

func parseCSV(r io.Reader) ([]model.FAQEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Category column is optional.

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("faq: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"question", "answer"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("faq: header missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []model.FAQEntry
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("faq: read row %d: %w", rowNum, err)
		}

		q := field(row, "question")
		a := field(row, "answer")
		if q == "" || a == "" {
			continue
		}

		id := field(row, "id")
		if id == "" {
			id = strconv.Itoa(len(entries))
		}

		entries = append(entries, model.FAQEntry{
			ID:       id,
			Question: q,
			Answer:   a,
			Category: field(row, "category"),
		})
	}

	return entries, nil
}
