// Package email provides the outbound mail transport.
package email

import (
	"context"
)

// Sender delivers a single HTML message. Implementations must be safe for
// concurrent use; each send is independent.
type Sender interface {
	Send(ctx context.Context, toEmail, fromName, fromEmail, subject, htmlBody string) error
}
