// Package export partitions finished leads into the spreadsheet groupings
// and hands them to a sink. Export is best effort: a sink failure is
// reported, never fatal, and in-memory leads survive for a retry.
package export

import (
	"context"
	"strconv"
	"strings"

	"github.com/gohub-dev/leadflow/internal/lead"
)

// Sheet names, stable for downstream consumers.
const (
	SheetCompanies = "Companies"
	SheetContacts  = "Contacts"
	SheetOutreach  = "Outreach"
	SheetStatus    = "Status"
)

// Table is one sheet's header and rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Tables maps sheet name to its table.
type Tables map[string]Table

// Sink receives a finished batch of grouped rows.
type Sink interface {
	Append(ctx context.Context, tables Tables) error
}

// Partition splits leads into the four sheet groupings. Every lead appears
// in Companies and Status; Contacts and Outreach only hold leads that have
// the corresponding sub-record.
func Partition(leads []*lead.Lead) Tables {
	companies := Table{Header: []string{
		"Lead ID", "Company Name", "Website", "Store URL", "Platform",
		"Industry", "Segment", "Country", "Employee Count", "Description",
	}}
	contacts := Table{Header: []string{
		"Lead ID", "Company Name", "Contact Name", "Title", "Profile URL",
		"Email", "Email Status", "Phone", "Location",
	}}
	outreach := Table{Header: []string{
		"Lead ID", "Company Name", "Contact Name",
		"Connection Request", "Follow-up", "Email Subject", "Email Body",
	}}
	status := Table{Header: []string{
		"Lead ID", "Company Name", "Status", "Score", "Qualified",
		"Fit Notes", "Degraded Stages", "Created", "Updated",
	}}

	for _, l := range leads {
		c := l.Company
		companies.Rows = append(companies.Rows, []string{
			l.ID, c.Name, c.Website, c.StoreURL, string(c.Platform),
			c.Industry, string(c.Segment), c.Country, intOrEmpty(c.EmployeeCount), c.Description,
		})

		if dm := l.DecisionMaker; dm != nil {
			contacts.Rows = append(contacts.Rows, []string{
				l.ID, c.Name, dm.Name, dm.Title, dm.ProfileURL,
				dm.Contact.Email, string(dm.Contact.EmailStatus), dm.Contact.Phone, dm.Location,
			})
		}

		if o := l.Outreach; o != nil {
			contactName := ""
			if l.DecisionMaker != nil {
				contactName = l.DecisionMaker.Name
			}
			outreach.Rows = append(outreach.Rows, []string{
				l.ID, c.Name, contactName,
				o.ConnectionRequest, o.Followup, o.EmailSubject, o.EmailBody,
			})
		}

		status.Rows = append(status.Rows, []string{
			l.ID, c.Name, string(l.Status),
			strconv.Itoa(l.Qualification.Score),
			strconv.FormatBool(l.Qualification.Qualified),
			l.Qualification.FitNotes,
			joinStages(l.Degraded()),
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			l.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return Tables{
		SheetCompanies: companies,
		SheetContacts:  contacts,
		SheetOutreach:  outreach,
		SheetStatus:    status,
	}
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func joinStages(stages []string) string {
	return strings.Join(stages, ", ")
}

// SheetNames returns the stable export order.
func SheetNames() []string {
	return []string{SheetCompanies, SheetContacts, SheetOutreach, SheetStatus}
}
