package outreach

import (
	"context"
	"fmt"
	"strings"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/provider"
)

// Stub is a deterministic offline writer for keyless local runs and tests.
// Companies whose name contains "error" fail with a transient error.
type Stub struct{}

func (Stub) Generate(_ context.Context, l *lead.Lead) (lead.OutreachCopy, error) {
	if strings.Contains(strings.ToLower(l.Company.Name), "error") {
		return lead.OutreachCopy{}, provider.Errorf("stub", "generate", provider.KindUnavailable, "forced error")
	}
	name := l.Company.Name
	if name == "" {
		name = lead.Domain(l.Company.Website)
	}
	req := fmt.Sprintf("Hi — noticed %s and thought prescription lenses could fit your catalog. Open to a quick chat?", name)
	if len(req) > MaxConnectionRequestLen {
		req = req[:MaxConnectionRequestLen]
	}
	return lead.OutreachCopy{
		ConnectionRequest: req,
		Followup:          fmt.Sprintf("Following up on my note about adding prescription eyewear to %s.", name),
		EmailSubject:      fmt.Sprintf("Prescription lenses for %s", name),
		EmailBody:         fmt.Sprintf("Hello,\n\nWe help stores like %s sell prescription eyewear without inventory or lab work.\n", name),
	}, nil
}
