package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs a unit of work that spans several collections.
type TxRunner interface {
	// Transactional reports whether fn runs inside a multi-document transaction.
	Transactional() bool
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewTxRunner returns a runner that uses MongoDB multi-document transactions
// when enabled (replica set required) and runs fn directly otherwise.
func NewTxRunner(client *mongo.Client, enabled bool) TxRunner {
	if client == nil || !enabled {
		return directRunner{}
	}
	return &sessionRunner{client: client}
}

type directRunner struct{}

func (directRunner) Transactional() bool { return false }

func (directRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sessionRunner struct {
	client *mongo.Client
}

func (r *sessionRunner) Transactional() bool { return true }

func (r *sessionRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
