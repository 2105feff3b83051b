package metrics

import "context"

// Recorder receives the events the service counts
type Recorder interface {
	// RecordRegistration counts one protected URL handed out
	RecordRegistration(ctx context.Context)

	// RecordForward counts one call on a substitute URL, labelled by how it ended
	RecordForward(ctx context.Context, outcome string)
}

// Collector reports state sampled at scrape time
type Collector interface {
	// Count returns the number of stored mappings
	Count(ctx context.Context) (int64, error)
}

// Nop discards everything; used when metrics are disabled
type Nop struct{}

func (Nop) RecordRegistration(context.Context)    {}
func (Nop) RecordForward(context.Context, string) {}
