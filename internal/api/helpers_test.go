package api

import (
	"strconv"
	"testing"
	"time"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}
