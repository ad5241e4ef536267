package todo

import (
	"context"
	"errors"
	"time"

	"todo_api/internal/metrics"
)

// Gateway is the persistence contract the handlers depend on. Lookups that
// match nothing return ErrNotFound; FindAll returns an empty, non-nil slice
// for an empty collection. Insert assigns the record identifier.
type Gateway interface {
	FindByID(ctx context.Context, id string) (Todo, error)
	FindAll(ctx context.Context) ([]Todo, error)
	Insert(ctx context.Context, todo Todo) (Todo, error)
	FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (Todo, error)
	FindByIDAndDelete(ctx context.Context, id string) (Todo, error)
}

// Pinger is implemented by gateways that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type instrumentedGateway struct {
	next    Gateway
	metrics *metrics.Metrics
}

// Instrument wraps g so every call is counted and timed per operation.
func Instrument(g Gateway, m *metrics.Metrics) Gateway {
	return &instrumentedGateway{next: g, metrics: m}
}

func (g *instrumentedGateway) FindByID(ctx context.Context, id string) (Todo, error) {
	start := time.Now()
	todo, err := g.next.FindByID(ctx, id)
	g.observe("find_by_id", start, err)
	return todo, err
}

func (g *instrumentedGateway) FindAll(ctx context.Context) ([]Todo, error) {
	start := time.Now()
	todos, err := g.next.FindAll(ctx)
	g.observe("find_all", start, err)
	return todos, err
}

func (g *instrumentedGateway) Insert(ctx context.Context, todo Todo) (Todo, error) {
	start := time.Now()
	created, err := g.next.Insert(ctx, todo)
	g.observe("insert", start, err)
	return created, err
}

func (g *instrumentedGateway) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (Todo, error) {
	start := time.Now()
	todo, err := g.next.FindByIDAndUpdate(ctx, id, patch)
	g.observe("find_by_id_and_update", start, err)
	return todo, err
}

func (g *instrumentedGateway) FindByIDAndDelete(ctx context.Context, id string) (Todo, error) {
	start := time.Now()
	todo, err := g.next.FindByIDAndDelete(ctx, id)
	g.observe("find_by_id_and_delete", start, err)
	return todo, err
}

func (g *instrumentedGateway) observe(operation string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	g.metrics.ObserveGateway(operation, outcome, time.Since(start))
}
