package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateExpression is returned by the expression store when the
// (actor, target, slot) triple already exists.
var ErrDuplicateExpression = errors.New("interest already expressed")

// Interest is a topic from the fixed taxonomy that users tag themselves with.
// swagger:model Interest
type Interest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// InterestTaxonomyRepository defines read access to the interest taxonomy.
type InterestTaxonomyRepository interface {
	List(ctx context.Context, params PaginationParams) ([]*Interest, int, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Interest, error)
}

// InterestExpression records a one-directional "I want to meet" action:
// the actor wants to meet whoever is at the target's slot. Expressions are
// immutable once created and are never deleted.
// swagger:model InterestExpression
type InterestExpression struct {
	ID        int64     `json:"id"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	SlotID    int64     `json:"slot_id"`
	CreatedAt time.Time `json:"created_at"`
}

// InterestExpressionRepository defines storage for the expression ledger.
type InterestExpressionRepository interface {
	// Create inserts the expression. Returns ErrDuplicateExpression when the
	// (actor, target, slot) triple already exists.
	Create(ctx context.Context, expr *InterestExpression) error
	Exists(ctx context.Context, actorID, targetID string, slotID int64) (bool, error)
	ListByActor(ctx context.Context, actorID string) ([]*InterestExpression, error)
	// ListByActorAndTarget returns expressions from actorID toward targetID,
	// oldest first. Used for reciprocity detection.
	ListByActorAndTarget(ctx context.Context, actorID, targetID string) ([]*InterestExpression, error)
}
