package user

import "context"

type actorKey struct{}

// NewContext returns a copy of ctx carrying the actor.
func NewContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext extracts the actor placed by the auth middleware or a job.
func ActorFromContext(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok {
		return Actor{}, ErrActorRequired
	}
	return actor, nil
}
