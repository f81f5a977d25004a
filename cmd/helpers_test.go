package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(unset)", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "****6789", maskSecret("123456789"))
}

func TestOrUnset(t *testing.T) {
	assert.Equal(t, "(unset)", orUnset(""))
	assert.Equal(t, "PROJ", orUnset("PROJ"))
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short", 10))
	assert.Equal(t, "exactly-10", truncateCell("exactly-10", 10))
	assert.Equal(t, "0123456789...", truncateCell("0123456789abc", 10))
}

func TestFormatDateCell(t *testing.T) {
	assert.Equal(t, "-", formatDateCell(nil))
	d := time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-14", formatDateCell(&d))
}
