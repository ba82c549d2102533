package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextInvoiceNumber(t *testing.T) {
	cases := map[string]string{
		"":          "INV-0001",
		"INV-0001":  "INV-0002",
		"INV-0009":  "INV-0010",
		"INV-0999":  "INV-1000",
		"INV-9999":  "INV-10000",
		"INV-":      "INV-0001",
		"garbage":   "INV-0001",
		"INV-00042": "INV-0043",
	}
	for last, want := range cases {
		assert.Equal(t, want, NextInvoiceNumber(last), "last=%q", last)
	}
}

func TestNextInvoiceNumber_SerialSequenceHasNoGaps(t *testing.T) {
	last := ""
	for i := 1; i <= 25; i++ {
		last = NextInvoiceNumber(last)
		assert.Equal(t, FormatInvoiceNumber(i), last)
	}
	assert.Equal(t, "INV-0025", last)
}
