package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrAllTransportsFailed signals exhaustion of every strategy. Callers fall
// back to the manual upload path when they see it.
var ErrAllTransportsFailed = errors.New("all transports failed")

// Pipeline tries transports strictly in order. A transport that errors or
// returns an empty body is non-fatal; the next one is attempted. Only total
// exhaustion surfaces an error.
type Pipeline struct {
	transports []Transport
	timeout    time.Duration
}

// NewPipeline creates a pipeline with a per-attempt timeout bounding each
// transport's round trip.
func NewPipeline(timeout time.Duration, transports ...Transport) *Pipeline {
	return &Pipeline{transports: transports, timeout: timeout}
}

// Fetch returns the bulletin bytes for date and the name of the transport
// that produced them.
func (p *Pipeline) Fetch(ctx context.Context, date time.Time) ([]byte, string, error) {
	if len(p.transports) == 0 {
		return nil, "", fmt.Errorf("%w: no transports configured", ErrAllTransportsFailed)
	}

	var failures []string
	for _, t := range p.transports {
		// Cooperative cancellation between attempts.
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		data, err := t.Fetch(attemptCtx, date)
		cancel()

		if err != nil {
			log.Printf("[WARN] transport %s failed: %v", t.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", t.Name(), err))
			continue
		}
		if len(data) == 0 {
			log.Printf("[WARN] transport %s returned empty body", t.Name())
			failures = append(failures, fmt.Sprintf("%s: empty body", t.Name()))
			continue
		}

		log.Printf("[INFO] fetched %d bytes via %s", len(data), t.Name())
		return data, t.Name(), nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrAllTransportsFailed, strings.Join(failures, "; "))
}
