// =============================================================================
// Legacy Mongo Migrator - Warnings Log Reader
// =============================================================================
//
// A prior migration run logs one warning line per part it could not resolve.
// The recover command re-reads that log and imports only the parts named in
// it. The identifier is extracted with a fixed pattern so the recovery input
// is exactly the set of keys a human saw fail.
//
// =============================================================================

package legacy

import (
	"bufio"
	"os"
	"regexp"

	"github.com/pkg/errors"
)

// missingPartPattern matches the warning lines emitted when a part lookup
// fails, e.g. "WARNING: Part 4521.0 not found for order S100. Skipping line."
var missingPartPattern = regexp.MustCompile(`Part\s+(\S+)\s+not found`)

// ReadMissingParts extracts the unique part identifiers named in a warnings
// log, preserving first-occurrence order.
func ReadMissingParts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open warnings file")
	}
	defer f.Close()

	seen := make(map[string]bool)
	var parts []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := missingPartPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			parts = append(parts, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read warnings file")
	}
	return parts, nil
}
