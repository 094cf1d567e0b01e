package members

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rinksidehq/rinkside-backend/pkg/emails"
	"github.com/rinksidehq/rinkside-backend/pkg/errors"
)

// headerTokens are first-cell values that mark a header row to skip.
var headerTokens = map[string]struct{}{
	"email":         {},
	"emails":        {},
	"email address": {},
	"e-mail":        {},
}

// Classification buckets every non-empty candidate into exactly one of
// valid-unique, duplicate-in-file, or invalid.
type Classification struct {
	ValidUnique      []string
	DuplicatesInFile []string
	Invalid          []string
	TotalScanned     int
}

// ParseCSV extracts the first column of every row from CSV text, skipping a
// leading header row when its first cell matches a known header token. The
// reader is capped at maxBytes; larger input fails before parsing.
func ParseCSV(r io.Reader, maxBytes int64) ([]string, error) {
	limited := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "read csv input")
	}
	if int64(len(data)) > maxBytes {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("csv input exceeds the %d byte limit", maxBytes))
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var candidates []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "parse csv input")
		}
		if len(record) == 0 {
			continue
		}
		cell := strings.TrimSpace(record[0])
		if first {
			first = false
			if _, isHeader := headerTokens[strings.ToLower(cell)]; isHeader {
				continue
			}
		}
		if cell == "" {
			continue
		}
		candidates = append(candidates, cell)
	}
	return candidates, nil
}

// Classify normalizes and buckets candidates. Duplicates are recorded once per
// distinct value regardless of how often they repeat.
func Classify(candidates []string) Classification {
	out := Classification{}
	seen := make(map[string]struct{}, len(candidates))
	duplicated := make(map[string]struct{})

	for _, raw := range candidates {
		normalized := emails.Normalize(raw)
		if normalized == "" {
			continue
		}
		out.TotalScanned++

		if !emails.IsValid(normalized) {
			out.Invalid = append(out.Invalid, normalized)
			continue
		}
		if _, dup := seen[normalized]; dup {
			if _, recorded := duplicated[normalized]; !recorded {
				duplicated[normalized] = struct{}{}
				out.DuplicatesInFile = append(out.DuplicatesInFile, normalized)
			}
			continue
		}
		seen[normalized] = struct{}{}
		out.ValidUnique = append(out.ValidUnique, normalized)
	}
	return out
}
