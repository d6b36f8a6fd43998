// Package store keeps the contacts of the contact book in memory and owns all rules for changing
// them.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/validate"
)

var (
	ErrEmptyName     = errors.New("store: contact name is empty")
	ErrDuplicateName = errors.New("store: contact already exists")
	ErrNotFound      = errors.New("store: contact not found")
	ErrInvalidPhone  = errors.New("store: invalid phone number")
	ErrInvalidEmail  = errors.New("store: invalid email address")
)

// Book is the collection of all contacts, keyed by name. Every contact in a Book has a normalized
// phone number of valid length and, if present, a valid email address.
//
// A Book is not safe for concurrent use.
type Book struct {
	contacts map[string]model.Contact
	// order holds the names in the order they were inserted. A deleted name leaves an empty slot
	// behind until the slots are compacted.
	order []string
	// position is the index of every present name in order.
	position map[string]int
	// holes counts the empty slots in order.
	holes int
	now   func() time.Time
}

// Option configures a Book.
type Option func(*Book)

// WithClock sets the function used to stamp creation and update times.
func WithClock(now func() time.Time) Option {
	return func(b *Book) {
		b.now = now
	}
}

// New returns an empty Book.
func New(opts ...Option) *Book {
	b := &Book{
		contacts: make(map[string]model.Contact),
		position: make(map[string]int),
		now: func() time.Time {
			return time.Now().UTC().Round(0)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add inserts a new contact. The phone number is normalized, an empty email or address is stored
// as absent, and a blank group becomes model.DefaultGroup. The timestamps of c are ignored; both
// are set to the current time.
//
// Adding a name that is already present fails with ErrDuplicateName and leaves the existing
// contact untouched. It is up to the caller to offer an update instead.
func (b *Book) Add(c model.Contact) (model.Contact, error) {
	if strings.TrimSpace(c.Name) == "" {
		return model.Contact{}, ErrEmptyName
	}
	if _, found := b.contacts[c.Name]; found {
		return model.Contact{}, fmt.Errorf("%w: %q", ErrDuplicateName, c.Name)
	}
	c, err := normalize(c)
	if err != nil {
		return model.Contact{}, err
	}
	now := b.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	b.insert(c)
	return c, nil
}

// Restore inserts a contact that was read from persistent storage. It applies the same checks as
// Add but keeps the timestamps of c.
func (b *Book) Restore(c model.Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if _, found := b.contacts[c.Name]; found {
		return fmt.Errorf("%w: %q", ErrDuplicateName, c.Name)
	}
	c, err := normalize(c)
	if err != nil {
		return fmt.Errorf("contact %q: %w", c.Name, err)
	}
	b.insert(c)
	return nil
}

// Update changes the fields of the named contact that are set in u. All new values are checked
// before any of them is applied, so a failed update leaves the contact as it was. The update time
// is stamped on every successful call, even if u does not change anything.
func (b *Book) Update(name string, u model.Update) (model.Contact, error) {
	c, found := b.contacts[name]
	if !found {
		return model.Contact{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if u.Phone != nil {
		phone, ok := validate.Phone(*u.Phone)
		if !ok {
			return model.Contact{}, fmt.Errorf("%w: %q", ErrInvalidPhone, *u.Phone)
		}
		c.Phone = phone
	}
	if u.Email != nil {
		if *u.Email != "" && !validate.Email(*u.Email) {
			return model.Contact{}, fmt.Errorf("%w: %q", ErrInvalidEmail, *u.Email)
		}
		c.Email = optional(*u.Email)
	}
	if u.Address != nil {
		c.Address = optional(*u.Address)
	}
	if u.Group != nil {
		c.Group = group(*u.Group)
	}
	c.UpdatedAt = b.now()
	b.contacts[name] = c
	return c, nil
}

// Delete removes the named contact. Any confirmation by the user has to happen before.
//
// The slot of the name in the insertion order is cleared, and the order is compacted once more than
// half of its slots are empty, so deleting is amortized constant time.
func (b *Book) Delete(name string) error {
	if _, found := b.contacts[name]; !found {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(b.contacts, name)
	b.order[b.position[name]] = ""
	delete(b.position, name)
	b.holes++
	if b.holes*2 > len(b.order) {
		b.compact()
	}
	return nil
}

// compact removes the empty slots from order.
func (b *Book) compact() {
	b.order = slices.DeleteFunc(b.order, func(n string) bool { return n == "" })
	for i, name := range b.order {
		b.position[name] = i
	}
	b.holes = 0
}

// Get returns the named contact.
func (b *Book) Get(name string) (model.Contact, bool) {
	c, found := b.contacts[name]
	return c, found
}

// Search returns the contacts whose name, phone digits or email contain term, ignoring case. The
// result is in insertion order. An empty term matches every contact; callers are expected to
// reject it beforehand.
func (b *Book) Search(term string) []model.Contact {
	term = strings.ToLower(term)
	var results []model.Contact
	for _, name := range b.order {
		if name == "" {
			continue
		}
		c := b.contacts[name]
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(c.Phone, term) ||
			(c.Email != nil && strings.Contains(strings.ToLower(*c.Email), term)) {
			results = append(results, c)
		}
	}
	return results
}

// All returns every contact, sorted by name.
func (b *Book) All() []model.Contact {
	all := b.Contacts()
	slices.SortFunc(all, func(a, b model.Contact) int {
		return strings.Compare(a.Name, b.Name)
	})
	return all
}

// Contacts returns every contact in insertion order.
func (b *Book) Contacts() []model.Contact {
	contacts := make([]model.Contact, 0, len(b.contacts))
	for _, name := range b.order {
		if name == "" {
			continue
		}
		contacts = append(contacts, b.contacts[name])
	}
	return contacts
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	return len(b.contacts)
}

func (b *Book) insert(c model.Contact) {
	b.contacts[c.Name] = c
	b.position[c.Name] = len(b.order)
	b.order = append(b.order, c.Name)
}

// normalize checks the phone and email of c and brings all fields into their stored form.
func normalize(c model.Contact) (model.Contact, error) {
	phone, ok := validate.Phone(c.Phone)
	if !ok {
		return c, fmt.Errorf("%w: %q", ErrInvalidPhone, c.Phone)
	}
	c.Phone = phone
	c.Email = optional(model.StringValue(c.Email))
	if c.Email != nil && !validate.Email(*c.Email) {
		return c, fmt.Errorf("%w: %q", ErrInvalidEmail, *c.Email)
	}
	c.Address = optional(model.StringValue(c.Address))
	c.Group = group(c.Group)
	return c, nil
}

// optional maps the empty string to an absent value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func group(g string) string {
	if strings.TrimSpace(g) == "" {
		return model.DefaultGroup
	}
	return g
}
