package ports

import "context"

// HintRequest carries the context an external mentor needs to produce a
// hint. Only the cacheable request/response pair passes through this
// subsystem; prompt construction happens on the other side.
type HintRequest struct {
	Level          int
	Command        string
	RecentCommands []string
}

// HintProducer is the external hint capability, invoked only on a genuine
// cache miss while online.
type HintProducer interface {
	Lookup(ctx context.Context, req HintRequest) (string, error)
}

// LevelSource provides the static exercise reference data (goals,
// recommended commands, reading material) fronted by the long-TTL cache
// namespace.
type LevelSource interface {
	Goal(ctx context.Context, level int) (string, error)
	Commands(ctx context.Context, level int) ([]string, error)
	ReadingMaterial(ctx context.Context, level int) ([]string, error)
}
