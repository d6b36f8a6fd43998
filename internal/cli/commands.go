package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/report"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// allowedOrderby are the allowed values for the '--orderby' flag of the list command.
var allowedOrderby = []string{"name", "group", "created_at", "updated_at"}

// contactFlags are the values of the flags that describe a contact.
type contactFlags struct {
	phone   string
	email   string
	address string
	group   string
}

// register adds the contact flags to cmd.
func (f *contactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.phone, "phone", "p", "", "phone number, 10 to 15 digits")
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "email address, empty to remove it")
	cmd.Flags().StringVarP(&f.address, "address", "a", "", "postal address, empty to remove it")
	cmd.Flags().StringVarP(&f.group, "group", "g", "", "group: "+strings.Join(model.Groups, ", "))
}

// update returns an update with the flags that were given on the command line, and only those.
func (f *contactFlags) update(cmd *cobra.Command) model.Update {
	var u model.Update
	if cmd.Flags().Changed("phone") {
		u.Phone = model.StringPtr(f.phone)
	}
	if cmd.Flags().Changed("email") {
		u.Email = model.StringPtr(strings.TrimSpace(f.email))
	}
	if cmd.Flags().Changed("address") {
		u.Address = model.StringPtr(strings.TrimSpace(f.address))
	}
	if cmd.Flags().Changed("group") {
		u.Group = model.StringPtr(strings.TrimSpace(f.group))
	}
	return u
}

// newAddCommand creates the command for adding a contact.
//
// If the name is already taken, the command fails unless '--update-existing' is given; then the
// existing contact is updated with the flags that were specified.
//
// Usage example:
//
//	> contacts add "John Doe" --phone "(123) 456-7890" --email john@example.com --group Friends
func (a *app) newAddCommand() *cobra.Command {
	var flags contactFlags
	var updateExisting bool
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a new contact",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		added, err := a.book.Add(model.Contact{
			Name:    name,
			Phone:   flags.phone,
			Email:   model.StringPtr(strings.TrimSpace(flags.email)),
			Address: model.StringPtr(strings.TrimSpace(flags.address)),
			Group:   strings.TrimSpace(flags.group),
		})
		if errors.Is(err, store.ErrDuplicateName) && updateExisting {
			a.log.Debug("Contact exists, updating instead", zap.String("name", name))
			return a.applyUpdate(name, flags.update(cmd))
		}
		if err != nil {
			return err
		}
		if err := a.save(); err != nil {
			return err
		}
		a.log.Info("Added contact", zap.String("name", added.Name))
		a.render.success(a.out, fmt.Sprintf("Contact '%s' added successfully!", added.Name))
		return nil
	})
	flags.register(cmd)
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "update the contact if the name already exists")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

// newSearchCommand creates the command that searches contacts by name, phone or email.
//
// Usage example:
//
//	> contacts search john
//	> contacts search 555
func (a *app) newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search contacts by name, phone or email (partial match)",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		term := strings.TrimSpace(strings.Join(args, " "))
		if term == "" {
			return errors.New("search term cannot be empty")
		}
		a.render.searchResults(a.out, a.book.Search(term))
		return nil
	})
	return cmd
}

// newUpdateCommand creates the command that changes an existing contact. Only the fields whose
// flags are given are changed.
//
// Usage example:
//
//	> contacts update "John Doe" --address "2 Side St" --email ""
func (a *app) newUpdateCommand() *cobra.Command {
	var flags contactFlags
	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Update an existing contact",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		return a.applyUpdate(strings.TrimSpace(args[0]), flags.update(cmd))
	})
	flags.register(cmd)
	return cmd
}

// applyUpdate updates the named contact and saves the book.
func (a *app) applyUpdate(name string, u model.Update) error {
	if _, err := a.book.Update(name, u); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	a.log.Info("Updated contact", zap.String("name", name))
	a.render.success(a.out, fmt.Sprintf("Contact '%s' updated successfully!", name))
	return nil
}

// newDeleteCommand creates the command that deletes a contact. Without '--yes' the user has to
// confirm by typing "yes".
//
// Usage example:
//
//	> contacts delete "John Doe" --yes
func (a *app) newDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if _, found := a.book.Get(name); !found {
			return fmt.Errorf("%w: %q", store.ErrNotFound, name)
		}
		if !yes {
			confirmed, err := a.confirm(fmt.Sprintf("Are you sure you want to delete '%s'? (yes/no): ", name), "yes")
			if err != nil && !errors.Is(err, errInputClosed) {
				return err
			}
			if !confirmed {
				fmt.Fprintln(a.out, "Deletion cancelled.")
				return nil
			}
		}
		return a.deleteContact(name)
	})
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking for confirmation")
	return cmd
}

// deleteContact removes the named contact and saves the book.
func (a *app) deleteContact(name string) error {
	if err := a.book.Delete(name); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	a.log.Info("Deleted contact", zap.String("name", name))
	a.render.success(a.out, fmt.Sprintf("Contact '%s' deleted successfully!", name))
	return nil
}

// newListCommand creates the command that shows all contacts, sorted by name unless another
// order is requested.
//
// Usage example:
//
//	> contacts list
//	> contacts list --group Work --orderby updated_at --descending
func (a *app) newListCommand() *cobra.Command {
	var group, orderby string
	var descending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Display all contacts",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(allowedOrderby, orderby) {
				return fmt.Errorf("invalid orderby value %q, allowed are %s", orderby, strings.Join(allowedOrderby, ", "))
			}
			return nil
		},
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		contacts := a.book.All()
		if cmd.Flags().Changed("group") {
			contacts = slices.DeleteFunc(contacts, func(c model.Contact) bool {
				return !strings.EqualFold(c.Group, group)
			})
		}
		sortContacts(contacts, orderby, descending)
		a.render.list(a.out, contacts)
		return nil
	})
	cmd.Flags().StringVarP(&group, "group", "g", "", "only show contacts of this group")
	cmd.Flags().StringVar(&orderby, "orderby", "name", "sort by: "+strings.Join(allowedOrderby, ", "))
	cmd.Flags().BoolVar(&descending, "descending", false, "reverse the sort order")
	return cmd
}

// sortContacts sorts contacts that are already sorted by name by the given field. Contacts with
// equal values stay sorted by name.
func sortContacts(contacts []model.Contact, orderby string, descending bool) {
	compare := func(x, y model.Contact) int {
		switch orderby {
		case "group":
			return strings.Compare(x.Group, y.Group)
		case "created_at":
			return x.CreatedAt.Compare(y.CreatedAt)
		case "updated_at":
			return x.UpdatedAt.Compare(y.UpdatedAt)
		default:
			return strings.Compare(x.Name, y.Name)
		}
	}
	slices.SortStableFunc(contacts, func(x, y model.Contact) int {
		if descending {
			return compare(y, x)
		}
		return compare(x, y)
	})
}

// newExportCommand creates the command that writes all contacts to a CSV or YAML file. The format
// follows the '--format' flag, or the extension of the file.
//
// Usage example:
//
//	> contacts export
//	> contacts export backup.yaml
func (a *app) newExportCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Export all contacts to a CSV or YAML file",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		file := a.cfg.Export.File
		if len(args) == 1 {
			file = args[0]
		}
		if !cmd.Flags().Changed("format") {
			format = formatOf(file, a.cfg.Export.Format)
		}
		return a.export(file, format)
	})
	cmd.Flags().StringVar(&format, "format", "", "export format: "+strings.Join(report.Formats, ", "))
	return cmd
}

// formatOf derives the export format from the extension of file.
func formatOf(file string, fallback string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return report.FormatYAML
	case ".csv":
		return report.FormatCSV
	}
	return fallback
}

// export writes the contact book to file. An empty book is not exported.
func (a *app) export(file string, format string) error {
	if a.book.Len() == 0 {
		fmt.Fprintln(a.out, "No contacts to export.")
		return nil
	}
	if err := report.ExportFile(file, format, a.book); err != nil {
		return err
	}
	a.log.Info("Exported contacts", zap.String("file", file), zap.String("format", format))
	a.render.success(a.out, fmt.Sprintf("Contacts exported to %s", file))
	return nil
}

// newStatsCommand creates the command that shows the number of contacts per group.
func (a *app) newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show contact statistics",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.withBook(func(cmd *cobra.Command, args []string) error {
		a.render.statistics(a.out, report.Statistics(a.book))
		return nil
	})
	return cmd
}

// newMenuCommand creates the command that starts the interactive menu.
func (a *app) newMenuCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive menu (default)",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.withBook(a.runMenu)
	return cmd
}
