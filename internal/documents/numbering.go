package documents

import (
	"fmt"
	"strconv"
	"strings"
)

// numberWidth is the zero-padded width of the numeric suffix.
const numberWidth = 5

// FormatNumber renders a document number like PO-00042. Values that outgrow
// the fixed width keep their full digits.
func FormatNumber(kind Kind, n int64) string {
	return fmt.Sprintf("%s-%0*d", kind.Prefix(), numberWidth, n)
}

// NumberSuffix extracts the numeric suffix from a document number.
func NumberSuffix(number string) (int64, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("documents: malformed number %q", number)
	}
	n, err := strconv.ParseInt(number[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("documents: malformed number %q: %w", number, err)
	}
	return n, nil
}
