package proxy

import (
	"context"
	"net/http"
)

//go:generate mockgen -destination=../test/mocks/evaluator.go -package=mocks . Evaluator

// Evaluator derives a value from a decoded webhook payload.
type Evaluator interface {
	Evaluate(ctx context.Context, payload any) (any, error)
}

type Middleware func(http.Handler) http.Handler
