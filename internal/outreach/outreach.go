// Package outreach generates personalized outreach copy for qualified leads.
package outreach

import (
	"context"

	"github.com/gohub-dev/leadflow/internal/lead"
)

// MaxConnectionRequestLen bounds the connection-request text. LinkedIn caps
// invites at 300 characters.
const MaxConnectionRequestLen = 300

// Writer generates outreach copy for one lead. Failures are non-fatal: a
// qualified lead without copy is still emitted for manual handling.
type Writer interface {
	Generate(ctx context.Context, l *lead.Lead) (lead.OutreachCopy, error)
}
