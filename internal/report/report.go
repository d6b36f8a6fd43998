// Package report derives read-only views of the contact book: statistics and exports.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// The supported export formats.
const (
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Formats are the allowed values for the export format.
var Formats = []string{FormatCSV, FormatYAML}

var ErrUnknownFormat = errors.New("report: unknown export format")

// Header is the first row of every CSV export.
var Header = []string{"name", "phone", "email", "address", "group", "created_at", "updated_at"}

// GroupCount is the number of contacts in one group.
type GroupCount struct {
	Group string
	Count int
}

// Stats summarizes the contact book.
type Stats struct {
	Total  int
	Groups []GroupCount
}

// GroupCounts counts the contacts per group. The groups appear in the order in which the first
// contact of each group was inserted.
func GroupCounts(book *store.Book) []GroupCount {
	var counts []GroupCount
	index := make(map[string]int)
	for _, c := range book.Contacts() {
		i, found := index[c.Group]
		if !found {
			i = len(counts)
			index[c.Group] = i
			counts = append(counts, GroupCount{Group: c.Group})
		}
		counts[i].Count++
	}
	return counts
}

// Statistics returns the total number of contacts and the counts per group.
func Statistics(book *store.Book) Stats {
	return Stats{Total: book.Len(), Groups: GroupCounts(book)}
}

// CSVRows returns one row per contact in insertion order, with the columns of Header. Absent
// optional values are empty strings.
func CSVRows(book *store.Book) [][]string {
	rows := make([][]string, 0, book.Len())
	for _, c := range book.Contacts() {
		rows = append(rows, []string{
			c.Name,
			c.Phone,
			model.StringValue(c.Email),
			model.StringValue(c.Address),
			c.Group,
			c.CreatedAt.Format(time.RFC3339Nano),
			c.UpdatedAt.Format(time.RFC3339Nano),
		})
	}
	return rows
}

// WriteCSV writes the header and all contacts as CSV to w.
func WriteCSV(w io.Writer, book *store.Book) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	if err := writer.WriteAll(CSVRows(book)); err != nil {
		return err
	}
	return writer.Error()
}

// WriteYAML writes all contacts in insertion order as a YAML sequence to w.
func WriteYAML(w io.Writer, book *store.Book) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(book.Contacts()); err != nil {
		return err
	}
	return encoder.Close()
}

// ExportFile writes all contacts to the file at path in the given format, replacing the file if it
// exists.
func ExportFile(path string, format string, book *store.Book) error {
	var write func(io.Writer, *store.Book) error
	switch strings.ToLower(format) {
	case FormatCSV:
		write = WriteCSV
	case FormatYAML:
		write = WriteYAML
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	if err := write(file, book); err != nil {
		file.Close()
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}
