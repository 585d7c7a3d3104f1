package integration

import (
	"fmt"
	"strings"
	"time"

	"github.com/tourbook/tourbook/internal/services"
)

// TestAccount generates unique test user credentials using timestamp
func TestAccount(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// ExtractTokenFromURL pulls the raw side-channel token out of an
// emailed link, e.g. ".../verifyEmail/{token}".
func ExtractTokenFromURL(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return ""
	}
	return url[idx+1:]
}

// LastMessageOfKind returns the most recent captured email of a kind.
func LastMessageOfKind(mailer *services.MockMailer, kind services.MessageKind) *services.SentMessage {
	for i := len(mailer.Sent) - 1; i >= 0; i-- {
		if mailer.Sent[i].Kind == kind {
			return &mailer.Sent[i]
		}
	}
	return nil
}
