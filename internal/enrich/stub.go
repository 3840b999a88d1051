package enrich

import (
	"context"
	"strings"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/provider"
)

// Stub is a deterministic offline provider for keyless local runs and tests.
// Domains containing "error" fail, domains containing "empty" return no data.
type Stub struct{}

func (Stub) Name() string { return "stub" }

func (Stub) CompanyProfile(_ context.Context, domain string) (CompanyProfile, error) {
	if strings.Contains(domain, "error") {
		return CompanyProfile{}, provider.Errorf("stub", "company-profile", provider.KindUnavailable, "forced error")
	}
	if strings.Contains(domain, "empty") {
		return CompanyProfile{}, provider.Errorf("stub", "company-profile", provider.KindNotFound, "no profile")
	}
	n := 35
	name := strings.SplitN(domain, ".", 2)[0]
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return CompanyProfile{
		Name:          name,
		Industry:      "Retail",
		Country:       "DE",
		Description:   "Online storefront",
		EmployeeCount: &n,
	}, nil
}

func (Stub) DecisionMakers(_ context.Context, domain string, _ []string) ([]Person, error) {
	if strings.Contains(domain, "error") || strings.Contains(domain, "empty") {
		return nil, provider.Errorf("stub", "decision-makers", provider.KindNotFound, "no people")
	}
	return []Person{
		{Name: "Alex Beispiel", Title: "CEO", ProfileURL: "https://linkedin.com/in/alex-beispiel"},
		{Name: "Sam Muster", Title: "E-Commerce Manager"},
	}, nil
}

func (Stub) FindEmail(_ context.Context, person Person, companyDomain string) (EmailResult, error) {
	if strings.Contains(companyDomain, "error") || strings.Contains(companyDomain, "empty") {
		return EmailResult{}, provider.Errorf("stub", "find-email", provider.KindNotFound, "no email")
	}
	first := strings.ToLower(strings.SplitN(person.Name, " ", 2)[0])
	return EmailResult{
		Email:  first + "@" + companyDomain,
		Status: lead.EmailValid,
	}, nil
}
