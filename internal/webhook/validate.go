package webhook

import (
	"fmt"
	"regexp"

	"forum_relay/internal/domain"
)

var (
	discordURLPattern = regexp.MustCompile(`^https://discord\.com/api/webhooks/\d+/[\w-]+$`)
	slackURLPattern   = regexp.MustCompile(`^https://hooks\.slack\.com/services/T\w+/B\w+/\w+$`)
)

// ValidateURL checks that url has the shape of an incoming webhook for t.
func ValidateURL(t domain.TargetType, url string) error {
	var ok bool
	switch t {
	case domain.TargetDiscord:
		ok = discordURLPattern.MatchString(url)
	case domain.TargetSlack:
		ok = slackURLPattern.MatchString(url)
	default:
		return fmt.Errorf("%w: unsupported webhook type %q (supported: discord, slack)", domain.ErrValidation, t)
	}
	if !ok {
		return fmt.Errorf("%w: invalid %s webhook URL format", domain.ErrValidation, t)
	}
	return nil
}
