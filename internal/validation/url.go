package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength bounds subscription URLs; anything longer is garbage input.
const maxURLLength = 2048

// NormalizeFeedURL validates a user-supplied feed link and returns the
// canonical form used for fetching and storage. A missing scheme defaults
// to https. Validation is syntactic only: a feed aggregator fetches
// whatever host the user subscribes to, including local ones.
func NormalizeFeedURL(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > maxURLLength {
		return "", fmt.Errorf("URL too long (max %d characters)", maxURLLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https")
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("URL must have a hostname")
	}

	return parsed.String(), nil
}
