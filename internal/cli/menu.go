package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/report"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
	"gitlab.com/dirk.krummacker/contact-book/internal/validate"
)

// menuEntries are the choices of the main menu, numbered from 1.
var menuEntries = []string{
	"Add Contact",
	"Search Contacts",
	"Update Contact",
	"Delete Contact",
	"Display All Contacts",
	"Export to CSV",
	"Show Statistics",
	"Save & Exit",
}

// runMenu shows the main menu until the user chooses to exit or the input ends. The contact book
// is saved after every change and once more on exit.
func (a *app) runMenu(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(a.out, "Loaded %d contacts.\n", a.book.Len())
	for {
		a.printMenu()
		choice, err := a.prompt(fmt.Sprintf("Enter your choice (1-%d): ", len(menuEntries)))
		if err != nil {
			return a.exitMenu(err)
		}

		switch choice {
		case "1":
			err = a.menuAdd()
		case "2":
			err = a.menuSearch()
		case "3":
			err = a.menuUpdate("")
		case "4":
			err = a.menuDelete()
		case "5":
			a.render.list(a.out, a.book.All())
		case "6":
			err = a.menuExport()
		case "7":
			a.render.statistics(a.out, report.Statistics(a.book))
		case "8":
			return a.exitMenu(nil)
		default:
			a.render.failure(a.out, "Invalid choice. Please try again.")
		}
		if err != nil {
			return a.exitMenu(err)
		}

		if _, err := a.prompt("\nPress Enter to continue..."); err != nil {
			return a.exitMenu(err)
		}
	}
}

func (a *app) printMenu() {
	line := strings.Repeat("=", 40)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, line)
	fmt.Fprintln(a.out, a.render.style(headingStyle, "CONTACT MANAGEMENT SYSTEM"))
	fmt.Fprintln(a.out, line)
	for i, entry := range menuEntries {
		fmt.Fprintf(a.out, "%d. %s\n", i+1, entry)
	}
	fmt.Fprintln(a.out, line)
}

// exitMenu saves the contact book and ends the menu. The end of the input is a regular way to
// leave the menu; other errors are returned after saving.
func (a *app) exitMenu(cause error) error {
	if cause != nil && !errors.Is(cause, errInputClosed) {
		a.log.Error("Leaving the menu after an error", zap.Error(cause))
	}
	if err := a.menuSave(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Goodbye!")
	if errors.Is(cause, errInputClosed) {
		return nil
	}
	return cause
}

// menuSave saves the contact book and tells the user about the result.
func (a *app) menuSave() error {
	if err := a.save(); err != nil {
		a.render.failure(a.out, fmt.Sprintf("Error saving contacts: %v", err))
		return err
	}
	a.render.success(a.out, "Contacts saved to file.")
	return nil
}

// menuAdd asks for the fields of a new contact, re-asking until every value is valid. If the name
// is already taken, the user may update that contact instead.
func (a *app) menuAdd() error {
	a.render.heading(a.out, "ADD NEW CONTACT")

	var name string
	for {
		var err error
		name, err = a.prompt("Enter contact name: ")
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(a.out, "Name cannot be empty!")
			continue
		}
		if _, found := a.book.Get(name); !found {
			break
		}
		fmt.Fprintf(a.out, "Contact '%s' already exists!\n", name)
		update, err := a.confirm("Do you want to update instead? (y/n): ", "y")
		if err != nil {
			return err
		}
		if update {
			return a.menuUpdate(name)
		}
	}

	phone, err := a.askPhone("Enter phone number: ")
	if err != nil {
		return err
	}
	email, err := a.askEmail("Enter email (optional, press Enter to skip): ")
	if err != nil {
		return err
	}
	address, err := a.prompt("Enter address (optional): ")
	if err != nil {
		return err
	}
	group, err := a.prompt(fmt.Sprintf("Enter group (%s): ", strings.Join(model.Groups, "/")))
	if err != nil {
		return err
	}

	added, err := a.book.Add(model.Contact{
		Name:    name,
		Phone:   phone,
		Email:   &email,
		Address: &address,
		Group:   group,
	})
	if err != nil {
		a.render.failure(a.out, err.Error())
		return nil
	}
	a.log.Info("Added contact", zap.String("name", added.Name))
	a.render.success(a.out, fmt.Sprintf("Contact '%s' added successfully!", added.Name))
	return a.menuSaveAfterChange()
}

// menuSaveAfterChange saves after a change. A failed save is shown to the user but does not end
// the menu.
func (a *app) menuSaveAfterChange() error {
	_ = a.menuSave()
	return nil
}

// askPhone asks until a valid phone number is entered.
func (a *app) askPhone(question string) (string, error) {
	for {
		phone, err := a.prompt(question)
		if err != nil {
			return "", err
		}
		if _, ok := validate.Phone(phone); ok {
			return phone, nil
		}
		a.render.failure(a.out, fmt.Sprintf("Invalid phone number! Please enter %d-%d digits.", validate.MinPhoneDigits, validate.MaxPhoneDigits))
	}
}

// askEmail asks until a valid email address or nothing is entered.
func (a *app) askEmail(question string) (string, error) {
	for {
		email, err := a.prompt(question)
		if err != nil {
			return "", err
		}
		if email == "" || validate.Email(email) {
			return email, nil
		}
		a.render.failure(a.out, "Invalid email format!")
	}
}

// menuSearch asks for a search term and shows the matching contacts.
func (a *app) menuSearch() error {
	a.render.heading(a.out, "SEARCH CONTACTS")
	term, err := a.prompt("Enter name or phone to search: ")
	if err != nil {
		return err
	}
	if term == "" {
		fmt.Fprintln(a.out, "Search term cannot be empty.")
		return nil
	}
	a.render.searchResults(a.out, a.book.Search(term))
	return nil
}

// menuUpdate asks field by field whether it should be changed. If name is empty, the user is asked
// for the contact first.
func (a *app) menuUpdate(name string) error {
	if name == "" {
		a.render.heading(a.out, "UPDATE CONTACT")
		var err error
		name, err = a.prompt("Enter contact name to update: ")
		if err != nil {
			return err
		}
	}
	c, found := a.book.Get(name)
	if !found {
		fmt.Fprintf(a.out, "Contact '%s' not found.\n", name)
		return nil
	}

	fmt.Fprintf(a.out, "\nUpdating contact: %s\n", name)
	fmt.Fprintf(a.out, "Current info: Phone: %s, Email: %s, Address: %s, Group: %s\n",
		c.Phone, valueOrNA(c.Email), valueOrNA(c.Address), c.Group)

	var u model.Update
	if yes, err := a.confirm("Update phone? (y/n): ", "y"); err != nil {
		return err
	} else if yes {
		phone, err := a.askPhone("Enter new phone number: ")
		if err != nil {
			return err
		}
		u.Phone = &phone
	}
	if yes, err := a.confirm("Update email? (y/n): ", "y"); err != nil {
		return err
	} else if yes {
		email, err := a.askEmail("Enter new email (optional, press Enter to skip): ")
		if err != nil {
			return err
		}
		u.Email = &email
	}
	if yes, err := a.confirm("Update address? (y/n): ", "y"); err != nil {
		return err
	} else if yes {
		address, err := a.prompt("Enter new address (optional): ")
		if err != nil {
			return err
		}
		u.Address = &address
	}
	if yes, err := a.confirm("Update group? (y/n): ", "y"); err != nil {
		return err
	} else if yes {
		group, err := a.prompt(fmt.Sprintf("Enter new group (%s): ", strings.Join(model.Groups, "/")))
		if err != nil {
			return err
		}
		u.Group = &group
	}

	if _, err := a.book.Update(name, u); err != nil {
		a.render.failure(a.out, err.Error())
		return nil
	}
	a.log.Info("Updated contact", zap.String("name", name))
	a.render.success(a.out, fmt.Sprintf("Contact '%s' updated successfully!", name))
	return a.menuSaveAfterChange()
}

func valueOrNA(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}

// menuDelete asks for a contact and deletes it after the user typed "yes".
func (a *app) menuDelete() error {
	a.render.heading(a.out, "DELETE CONTACT")
	name, err := a.prompt("Enter contact name to delete: ")
	if err != nil {
		return err
	}
	if _, found := a.book.Get(name); !found {
		fmt.Fprintf(a.out, "Contact '%s' not found.\n", name)
		return nil
	}
	confirmed, err := a.confirm(fmt.Sprintf("Are you sure you want to delete '%s'? (yes/no): ", name), "yes")
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(a.out, "Deletion cancelled.")
		return nil
	}
	if err := a.book.Delete(name); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	a.log.Info("Deleted contact", zap.String("name", name))
	a.render.success(a.out, fmt.Sprintf("Contact '%s' deleted successfully!", name))
	return a.menuSaveAfterChange()
}

// menuExport asks for a file name and exports the contacts as CSV.
func (a *app) menuExport() error {
	if a.book.Len() == 0 {
		fmt.Fprintln(a.out, "No contacts to export.")
		return nil
	}
	file, err := a.prompt(fmt.Sprintf("Enter CSV filename (default: %s): ", a.cfg.Export.File))
	if err != nil {
		return err
	}
	if file == "" {
		file = a.cfg.Export.File
	}
	if err := a.export(file, formatOf(file, a.cfg.Export.Format)); err != nil {
		a.log.Warn("Export failed", zap.Error(err))
		a.render.failure(a.out, fmt.Sprintf("Error exporting contacts: %v", err))
	}
	return nil
}
