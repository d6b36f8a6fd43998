// Package persist reads and writes the contact book from and to local storage.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

var (
	// ErrCorruptFile is returned together with an empty book when the stored data cannot be
	// understood. Callers may continue with the empty book.
	ErrCorruptFile = errors.New("persist: corrupt contacts file")
	ErrIO          = errors.New("persist: i/o error")
)

// legacyTimeLayout is the ISO-8601 form without zone that older contact files contain.
const legacyTimeLayout = "2006-01-02T15:04:05.999999"

// record is the stored form of a contact. The name is the key of the surrounding JSON object, or
// the primary key of the SQL table.
type record struct {
	Name      string  `json:"-"          db:"name"`
	Phone     string  `json:"phone"      db:"phone"`
	Email     *string `json:"email"      db:"email"`
	Address   *string `json:"address"    db:"address"`
	Group     string  `json:"group"      db:"contact_group"`
	CreatedAt string  `json:"created_at" db:"created_at"`
	UpdatedAt string  `json:"updated_at" db:"updated_at"`
}

// toRecord converts a contact into its stored form.
func toRecord(c model.Contact) record {
	return record{
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Group:     c.Group,
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// toContact converts a stored record back into a contact.
func (r record) toContact() (model.Contact, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Contact{}, fmt.Errorf("contact %q: created_at: %w", r.Name, err)
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return model.Contact{}, fmt.Errorf("contact %q: updated_at: %w", r.Name, err)
	}
	return model.Contact{
		Name:      r.Name,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		Group:     r.Group,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if legacy, errLegacy := time.ParseInLocation(legacyTimeLayout, s, time.Local); errLegacy == nil {
		return legacy, nil
	}
	return time.Time{}, err
}

// restore builds a book from stored records. Any record that breaks the rules of the book makes
// the whole data set corrupt.
func restore(records []record) (*store.Book, error) {
	book := store.New()
	for _, r := range records {
		c, err := r.toContact()
		if err != nil {
			return store.New(), fmt.Errorf("%w: %w", ErrCorruptFile, err)
		}
		if err := book.Restore(c); err != nil {
			return store.New(), fmt.Errorf("%w: %w", ErrCorruptFile, err)
		}
	}
	return book, nil
}

// Load reads the contact book from the JSON file at path.
//
// A missing file is not an error; an empty book is returned. If the file cannot be parsed, an
// empty book is returned together with an error wrapping ErrCorruptFile. If the file cannot be
// read, the error wraps ErrIO.
func Load(path string) (*store.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.New(), nil
		}
		return store.New(), fmt.Errorf("%w: reading %s: %w", ErrIO, path, err)
	}

	// The file is an object keyed by name. The decoder tokens give the key order of the file, the
	// map gives the value, which is the last one for a repeated key.
	decoder := json.NewDecoder(bytes.NewReader(data))
	names, err := objectKeys(decoder)
	if err != nil {
		return store.New(), fmt.Errorf("%w: %s: %w", ErrCorruptFile, path, err)
	}
	var byName map[string]record
	if err := json.Unmarshal(data, &byName); err != nil {
		return store.New(), fmt.Errorf("%w: %s: %w", ErrCorruptFile, path, err)
	}
	records := make([]record, 0, len(names))
	for _, name := range names {
		r := byName[name]
		r.Name = name
		records = append(records, r)
	}
	book, err := restore(records)
	if err != nil {
		return book, fmt.Errorf("%s: %w", path, err)
	}
	return book, nil
}

// objectKeys returns the keys of the top level JSON object in the order of their first occurrence
// in the document. A repeated key is returned once. The literal null is read as an empty object.
func objectKeys(decoder *json.Decoder) ([]string, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, found %v", token)
	}
	var keys []string
	seen := make(map[string]bool)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, found %v", token)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := decoder.Decode(&skip); err != nil {
			return nil, err
		}
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); err == nil {
		return nil, errors.New("unexpected data after the JSON object")
	}
	return keys, nil
}

// newFileMode is the permission of a contacts file that is created by Save.
const newFileMode os.FileMode = 0o644

// Save writes all contacts of book to the JSON file at path. The data is first written to a
// temporary file in the same directory which then replaces the target. An existing file keeps its
// permissions. Errors wrap ErrIO.
func Save(book *store.Book, path string) error {
	data, err := marshal(book)
	if err != nil {
		return fmt.Errorf("%w: encoding contacts: %w", ErrIO, err)
	}
	perm := newFileMode
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temporary file in %s: %w", ErrIO, dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrIO, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", ErrIO, path, err)
	}
	return nil
}

// marshal encodes the book as a JSON object keyed by name, in insertion order, indented by four
// spaces.
func marshal(book *store.Book) ([]byte, error) {
	contacts := book.Contacts()
	if len(contacts) == 0 {
		return []byte("{}\n"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, c := range contacts {
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.MarshalIndent(toRecord(c), "    ", "    ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(contacts)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
