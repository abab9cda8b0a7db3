package telegram

import (
	"fmt"
	"strings"

	"github.com/Cristinuc/telegram-weather-bot/internal/domain"
)

// RemindRequest is the parsed form of a /remind command's arguments:
// a scope token, a quoted message and a trailing time specification.
type RemindRequest struct {
	Scope    domain.Scope
	Username string // without the leading @, User scope only
	Message  string
	Spec     string
}

// ParseRemindArgs parses the creation grammar:
//
//	grup "<mesaj>" <specificație de timp>
//	@<utilizator> "<mesaj>" <specificație de timp>
//
// Any deviation is rejected with a validation error naming the expected
// forms; the time specification itself is validated later by the parser.
func ParseRemindArgs(args string) (RemindRequest, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return RemindRequest{}, usageError("lipsesc argumentele")
	}

	scopeTok, rest, _ := strings.Cut(args, " ")
	var req RemindRequest
	switch {
	case scopeTok == "grup":
		req.Scope = domain.ScopeGroup
	case strings.HasPrefix(scopeTok, "@") && len(scopeTok) > 1:
		req.Scope = domain.ScopeUser
		req.Username = strings.TrimPrefix(scopeTok, "@")
	default:
		return RemindRequest{}, usageError(fmt.Sprintf("destinatar necunoscut %q", scopeTok))
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, `"`) {
		return RemindRequest{}, usageError("mesajul trebuie pus între ghilimele")
	}
	closing := strings.Index(rest[1:], `"`)
	if closing < 0 {
		return RemindRequest{}, usageError("ghilimelele mesajului nu sunt închise")
	}
	req.Message = strings.TrimSpace(rest[1 : closing+1])
	if req.Message == "" {
		return RemindRequest{}, usageError("mesajul este gol")
	}

	req.Spec = strings.TrimSpace(rest[closing+2:])
	if req.Spec == "" {
		return RemindRequest{}, usageError("lipsește specificația de timp")
	}
	return req, nil
}

func usageError(reason string) error {
	return fmt.Errorf("%w: %s\n%s", domain.ErrValidation, reason, remindUsage)
}
