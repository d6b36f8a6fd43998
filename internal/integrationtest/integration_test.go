package integrationtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-book/internal/cli"
	"gitlab.com/dirk.krummacker/contact-book/internal/config"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// contactsApp runs the contact book on the command line against one storage file.
type contactsApp struct {
	t       *testing.T
	backend string
	file    string
}

func newContactsApp(t *testing.T, backend string) *contactsApp {
	file := filepath.Join(t.TempDir(), "contacts."+backend)
	return &contactsApp{t: t, backend: backend, file: file}
}

// run executes one command line with the given standard input.
func (a *contactsApp) run(input string, args ...string) (string, error) {
	t := a.t
	t.Setenv("CONTACTS_STORAGE_BACKEND", a.backend)
	t.Setenv("CONTACTS_STORAGE_PATH", a.file)
	t.Setenv("CONTACTS_EXPORT_FILE", filepath.Join(filepath.Dir(a.file), "export.csv"))
	cfg, err := config.NewConfig()
	require.NoError(t, err)

	cmd := cli.NewRootCommand(cfg, cli.WithLogger(zap.NewNop()))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(input))
	// A nil slice would make cobra parse the arguments of the test binary.
	cmd.SetArgs(append([]string{}, args...))
	err = cmd.Execute()
	return out.String(), err
}

func (a *contactsApp) mustRun(args ...string) string {
	out, err := a.run("", args...)
	require.NoError(a.t, err, strings.Join(args, " "))
	return out
}

// TestContactHappyPath adds, finds, updates, and deletes a contact, with both storage backends.
func TestContactHappyPath(t *testing.T) {
	for _, backend := range config.Backends {
		t.Run(backend, func(t *testing.T) {
			app := newContactsApp(t, backend)

			// add a contact
			out := app.mustRun("add", "Erika Mustermann", "--phone", "+49 0815 4711 00", "--email", "erika@mustermann.de", "--group", "Family")
			assert.Equal(t, "Contact 'Erika Mustermann' added successfully!\n", out)

			// find the contact by name, phone digits, and email
			for _, term := range []string{"mustermann", "0815", "ERIKA@"} {
				out = app.mustRun("search", term)
				assert.Contains(t, out, "Found 1 contact(s):", term)
				assert.Contains(t, out, "   Phone: 490815471100\n", term)
				assert.Contains(t, out, "   Email: erika@mustermann.de\n", term)
				assert.Contains(t, out, "   Group: Family\n", term)
			}

			// update the contact
			out = app.mustRun("update", "Erika Mustermann", "--phone", "+49 1234567890", "--address", "Hauptstraße 1, Köln")
			assert.Equal(t, "Contact 'Erika Mustermann' updated successfully!\n", out)

			// a subsequent lookup returns the updated values
			out = app.mustRun("search", "erika")
			assert.Contains(t, out, "   Phone: 491234567890\n")
			assert.Contains(t, out, "   Email: erika@mustermann.de\n")
			assert.Contains(t, out, "   Address: Hauptstraße 1, Köln\n")

			// delete the contact
			out = app.mustRun("delete", "Erika Mustermann", "--yes")
			assert.Equal(t, "Contact 'Erika Mustermann' deleted successfully!\n", out)

			// a final lookup does not find it anymore
			out = app.mustRun("search", "erika")
			assert.Equal(t, "No contacts found.\n", out)
			_, err := app.run("", "update", "Erika Mustermann", "--group", "Work")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

// TestAddContactInvalidInput tries to add contacts with different forms of invalid data. Nothing
// must be stored.
func TestAddContactInvalidInput(t *testing.T) {
	invalidArgs := [][]string{
		{"add", "Erika", "--phone", "123456789"},        // 9 digits
		{"add", "Erika", "--phone", "1234567890123456"}, // 16 digits
		{"add", "Erika", "--phone", "no digits"},
		{"add", "Erika", "--phone", "1234567890", "--email", "erika@localhost"},
		{"add", "Erika", "--phone", "1234567890", "--email", "@mustermann.de"},
		{"add", "", "--phone", "1234567890"},
		{"add", "Erika"},
		{"add"},
	}

	app := newContactsApp(t, config.BackendJSON)
	for _, args := range invalidArgs {
		_, err := app.run("", args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
	assert.NoFileExists(t, app.file)
}

// TestPartialUpdate changes one field at a time and expects all others to keep their values.
func TestPartialUpdate(t *testing.T) {
	app := newContactsApp(t, config.BackendJSON)
	app.mustRun("add", "Rudi Völler", "--phone", "+49 1234567890", "--email", "rudi@dfb.de", "--address", "Leverkusen", "--group", "Work")
	created := readContactsFile(t, app.file)["Rudi Völler"]

	time.Sleep(2 * time.Millisecond)
	app.mustRun("update", "Rudi Völler", "--email", "")
	updated := readContactsFile(t, app.file)["Rudi Völler"]
	assert.Nil(t, updated["email"])
	assert.Equal(t, "491234567890", updated["phone"])
	assert.Equal(t, "Leverkusen", updated["address"])
	assert.Equal(t, "Work", updated["group"])
	assert.Equal(t, created["created_at"], updated["created_at"])
	assert.NotEqual(t, created["updated_at"], updated["updated_at"])

	app.mustRun("update", "Rudi Völler", "--group", "  ")
	updated = readContactsFile(t, app.file)["Rudi Völler"]
	assert.Equal(t, "Other", updated["group"])
	assert.Equal(t, "Leverkusen", updated["address"])

	_, err := app.run("", "update", "Rudi Völler", "--phone", "1234567890", "--email", "invalid")
	assert.ErrorIs(t, err, store.ErrInvalidEmail)
	updated = readContactsFile(t, app.file)["Rudi Völler"]
	assert.Equal(t, "491234567890", updated["phone"])
}

// TestFindAllContacts adds a number of contacts and lists, exports, and counts them.
func TestFindAllContacts(t *testing.T) {
	for _, backend := range config.Backends {
		t.Run(backend, func(t *testing.T) {
			app := newContactsApp(t, backend)
			groups := []string{"Friends", "Work", "Friends", "", "Family"}
			names := []string{"Marcus Antonius", "Gaius Iulius Caesar", "Cleopatra", "Octavian", "Brutus"}
			for i, name := range names {
				app.mustRun("add", name, "--phone", fmt.Sprintf("+39 999 777 55%d", i), "--group", groups[i])
			}

			out := app.mustRun("list")
			assert.Contains(t, out, "ALL CONTACTS (5)")
			previous := -1
			for _, name := range []string{"Brutus", "Cleopatra", "Gaius Iulius Caesar", "Marcus Antonius", "Octavian"} {
				index := strings.Index(out, "Name: "+name)
				assert.Greater(t, index, previous, name)
				previous = index
			}

			out = app.mustRun("stats")
			assert.Contains(t, out, "Total Contacts: 5\n")
			assert.Contains(t, out, "  Friends: 2\n  Work: 1\n  Other: 1\n  Family: 1\n")

			exportFile := filepath.Join(t.TempDir(), "all.csv")
			app.mustRun("export", exportFile)
			data, err := os.ReadFile(exportFile)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			require.Len(t, lines, 6)
			assert.True(t, strings.HasPrefix(lines[1], "Marcus Antonius,39999777550,,,Friends,"))
			assert.True(t, strings.HasPrefix(lines[4], "Octavian,39999777553,,,Other,"))
		})
	}
}

// TestMenuSession drives the interactive menu and checks the file written on exit.
func TestMenuSession(t *testing.T) {
	app := newContactsApp(t, config.BackendJSON)
	input := strings.Join([]string{
		"1", "Cleopatra", "+20 123 456 7890", "", "Alexandria", "Family", "",
		"3", "Cleopatra", "n", "y", "cleo@egypt.eg", "n", "n", "",
		"8",
	}, "\n") + "\n"
	out, err := app.run(input)
	require.NoError(t, err)
	assert.Contains(t, out, "Contact 'Cleopatra' added successfully!")
	assert.Contains(t, out, "Contact 'Cleopatra' updated successfully!")
	assert.Contains(t, out, "Goodbye!")

	contacts := readContactsFile(t, app.file)
	require.Len(t, contacts, 1)
	assert.Equal(t, map[string]any{
		"phone":      "201234567890",
		"email":      "cleo@egypt.eg",
		"address":    "Alexandria",
		"group":      "Family",
		"created_at": contacts["Cleopatra"]["created_at"],
		"updated_at": contacts["Cleopatra"]["updated_at"],
	}, contacts["Cleopatra"])
}

// TestCorruptContactsFile expects the contact book to start empty when the file cannot be parsed,
// and to overwrite it on the next save.
func TestCorruptContactsFile(t *testing.T) {
	app := newContactsApp(t, config.BackendJSON)
	require.NoError(t, os.WriteFile(app.file, []byte(`{"Erika": {"phone": 4711}}`), 0o644))

	out := app.mustRun("stats")
	assert.Contains(t, out, "Error loading contacts file. Starting with empty contacts.")
	assert.Contains(t, out, "No contacts in the system.")

	app.mustRun("add", "Erika", "--phone", "0815471100")
	contacts := readContactsFile(t, app.file)
	assert.Equal(t, "0815471100", contacts["Erika"]["phone"])
}

// readContactsFile decodes the JSON contacts file into generic maps.
func readContactsFile(t *testing.T, path string) map[string]map[string]any {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var contacts map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &contacts))
	return contacts
}
