package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const invoiceNumberPrefix = "INV-"

// FormatInvoiceNumber returns n zero-padded to four digits, e.g. INV-0007.
// Numbers past 9999 keep growing in width.
func FormatInvoiceNumber(n int) string {
	return fmt.Sprintf("%s%04d", invoiceNumberPrefix, n)
}

// NextInvoiceNumber increments the numeric suffix of last. An empty or unparseable
// last number starts the sequence at INV-0001.
func NextInvoiceNumber(last string) string {
	idx := strings.LastIndexFunc(last, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(last[idx+1:])
	if err != nil {
		return FormatInvoiceNumber(1)
	}
	return FormatInvoiceNumber(n + 1)
}

// allocateInvoiceNumber reads the most recently created invoice and returns the number after it.
// Two callers can get the same number; the unique index on invoice_number rejects the loser,
// which retries with a fresh allocation.
func allocateInvoiceNumber(ctx context.Context, invoices *mongo.Collection) (string, error) {
	var last struct {
		InvoiceNumber string `bson:"invoice_number"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "invoice_number", Value: -1}}).
		SetProjection(bson.M{"invoice_number": 1})
	err := invoices.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return FormatInvoiceNumber(1), nil
	}
	if err != nil {
		return "", internalErr("read last invoice", err)
	}
	return NextInvoiceNumber(last.InvoiceNumber), nil
}
