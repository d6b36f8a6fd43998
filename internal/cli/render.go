package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/report"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
	nameStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"})
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})
)

// separatorWidth is the width of the lines drawn under headings.
const separatorWidth = 50

// renderer writes the text shown to the user. Styles are only applied on a terminal.
type renderer struct {
	styled bool
}

func (r renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r renderer) heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.style(headingStyle, title))
	fmt.Fprintln(w, strings.Repeat("-", separatorWidth))
}

func (r renderer) success(w io.Writer, message string) {
	fmt.Fprintln(w, r.style(successStyle, message))
}

func (r renderer) failure(w io.Writer, message string) {
	fmt.Fprintln(w, r.style(failureStyle, message))
}

// contact writes one contact as a block, starting with title. Absent optional values are left
// out.
func (r renderer) contact(w io.Writer, title string, c model.Contact) {
	fmt.Fprintln(w, r.style(nameStyle, title))
	r.field(w, "Phone", c.Phone)
	if c.Email != nil {
		r.field(w, "Email", *c.Email)
	}
	if c.Address != nil {
		r.field(w, "Address", *c.Address)
	}
	r.field(w, "Group", c.Group)
	fmt.Fprintln(w)
}

func (r renderer) field(w io.Writer, label string, value string) {
	fmt.Fprintf(w, "   %s %s\n", r.style(labelStyle, label+":"), value)
}

// searchResults writes a numbered list of contacts.
func (r renderer) searchResults(w io.Writer, results []model.Contact) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No contacts found.")
		return
	}
	r.heading(w, fmt.Sprintf("Found %d contact(s):", len(results)))
	for i, c := range results {
		r.contact(w, fmt.Sprintf("%d. %s", i+1, c.Name), c)
	}
}

// list writes all contacts under a heading with their count.
func (r renderer) list(w io.Writer, contacts []model.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "No contacts to display.")
		return
	}
	r.heading(w, fmt.Sprintf("ALL CONTACTS (%d)", len(contacts)))
	for _, c := range contacts {
		r.contact(w, "Name: "+c.Name, c)
	}
}

// statistics writes the total and the number of contacts per group.
func (r renderer) statistics(w io.Writer, stats report.Stats) {
	if stats.Total == 0 {
		fmt.Fprintln(w, "No contacts in the system.")
		return
	}
	r.heading(w, "CONTACT STATISTICS")
	fmt.Fprintf(w, "Total Contacts: %d\n", stats.Total)
	fmt.Fprintln(w, "Contacts by Group:")
	for _, g := range stats.Groups {
		fmt.Fprintf(w, "  %s: %d\n", g.Group, g.Count)
	}
}
