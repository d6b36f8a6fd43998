package persist

import "gitlab.com/dirk.krummacker/contact-book/internal/store"

// Backend is a place where the contact book is kept between runs.
type Backend interface {
	// Load reads the whole book. See Load for the meaning of ErrCorruptFile and ErrIO.
	Load() (*store.Book, error)
	// Save replaces the stored book with book.
	Save(book *store.Book) error
	Close() error
}

// JSONFile is the default Backend, a single JSON document on disk.
type JSONFile struct {
	path string
}

// NewJSONFile returns a Backend for the JSON file at path. The file does not need to exist.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load reads the book from the file.
func (f *JSONFile) Load() (*store.Book, error) {
	return Load(f.path)
}

// Save replaces the file with book.
func (f *JSONFile) Save(book *store.Book) error {
	return Save(book, f.path)
}

// Close does nothing; the file is only open while loading or saving.
func (f *JSONFile) Close() error {
	return nil
}

// Path returns the location of the file.
func (f *JSONFile) Path() string {
	return f.path
}
