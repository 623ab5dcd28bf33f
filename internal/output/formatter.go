package output

import (
	"fmt"
	"strings"
)

func normalizeFormatName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func unsupportedFormatError(name string) error {
	return fmt.Errorf("unsupported format: %s; use 'human', 'json', or 'summary'", name)
}
