package push

import (
	"context"
	"log"
	"time"

	"pushrelay/internal/metrics"
	"pushrelay/internal/registry"
)

// Result summarizes one dispatch run. Attempted always equals
// Succeeded+Failed and matches the registry size at snapshot time.
type Result struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Dispatcher fans one message out to every registered token. Attempts are
// independent: a failed send is counted and logged, never aborts the run.
type Dispatcher struct {
	Registry *registry.Registry
	Client   Client
	Message  Message
	// Timeout bounds each individual send so one dead token cannot stall
	// the whole run.
	Timeout time.Duration
}

func NewDispatcher(reg *registry.Registry, client Client, msg Message) *Dispatcher {
	return &Dispatcher{Registry: reg, Client: client, Message: msg, Timeout: 5 * time.Second}
}

// Dispatch delivers the configured message to a snapshot of the registry.
// It returns ErrTransportUnavailable before any send when the client has no
// credentials; an empty registry yields a zero-attempt Result with nil error.
func (d *Dispatcher) Dispatch(ctx context.Context) (Result, error) {
	if d.Client == nil || !d.Client.Ready() {
		log.Printf("dispatch aborted: transport not ready")
		return Result{}, ErrTransportUnavailable
	}

	tokens := d.Registry.Snapshot()
	res := Result{Attempted: len(tokens)}
	if len(tokens) == 0 {
		return res, nil
	}

	log.Printf("dispatching notification to %d subscribers", len(tokens))
	for i, tok := range tokens {
		sendCtx, cancel := context.WithTimeout(ctx, d.Timeout)
		start := time.Now()
		id, err := d.Client.Send(sendCtx, tok, d.Message)
		cancel()
		latency := float64(time.Since(start).Milliseconds())
		if err != nil {
			res.Failed++
			metrics.PushSends.WithLabelValues("failure").Inc()
			metrics.PushLatency.WithLabelValues("failure").Observe(latency)
			// log the positional index, never the raw token
			log.Printf("push send failed token=%d err=%v", i+1, err)
			continue
		}
		res.Succeeded++
		metrics.PushSends.WithLabelValues("success").Inc()
		metrics.PushLatency.WithLabelValues("success").Observe(latency)
		log.Printf("push sent token=%d messageId=%s", i+1, id)
	}
	return res, nil
}
