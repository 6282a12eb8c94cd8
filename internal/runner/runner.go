// Package runner is the host loop: it runs one operation over an ordered list
// of input items and applies the continue-on-fail policy.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
	"github.com/lomavis/n8n-lomavis-go/internal/attachment"
	"github.com/lomavis/n8n-lomavis-go/internal/lomavis"
)

// Item is one input item as a host hands it over.
type Item struct {
	JSON   json.RawMessage            `json:"json"`
	Binary map[string]attachment.Spec `json:"binary,omitempty"`
}

type PairedItem struct {
	Item int `json:"item"`
}

// Output is one result record, linked back to the input item it came from.
type Output struct {
	JSON       lomavis.Item `json:"json"`
	PairedItem PairedItem   `json:"pairedItem"`
}

// Kind classifies a failed item.
type Kind string

const (
	KindAPI       Kind = "api"       // the API answered with an error or was unreachable
	KindOperation Kind = "operation" // validation and everything else
)

// ItemError is the error that stops a run.
type ItemError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %s error: %v", e.Index, e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func classify(err error) Kind {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return KindAPI
	}
	return KindOperation
}

type Options struct {
	ContinueOnFail bool
	// AllowPaths lets binary entries point at local files.
	AllowPaths     bool
}

type Runner struct {
	registry lomavis.Registry
	log      *logrus.Entry
}

func New(registry lomavis.Registry, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{registry: registry, log: log}
}

// Run executes key once per item, in order. Results keep input order and
// every output carries the index of its item.
//
// With ContinueOnFail a failed item yields {"error": message} and the run goes
// on; otherwise the first failure aborts the run with an *ItemError and the
// outputs collected so far. An unsupported key fails before any item runs.
func (r *Runner) Run(ctx context.Context, key lomavis.Key, items []Item, opts Options) ([]Output, error) {
	exec, err := r.registry.Lookup(key)
	if err != nil {
		return nil, err
	}

	log := r.log.WithFields(logrus.Fields{"run": uuid.NewString(), "key": key.String()})
	log.WithField("items", len(items)).Debug("run started")

	out := make([]Output, 0, len(items))
	failed := 0
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return out, &ItemError{Index: i, Kind: KindOperation, Err: err}
		}

		rec := lomavis.Record{
			Index:  i,
			Params: item.JSON,
			Binary: binaries{specs: item.Binary, allowPaths: opts.AllowPaths},
		}
		results, err := exec.Execute(ctx, rec)
		if err != nil {
			kind := classify(err)
			if opts.ContinueOnFail {
				failed++
				log.WithError(err).WithFields(logrus.Fields{"item": i, "kind": kind}).Warn("item failed")
				out = append(out, Output{JSON: lomavis.Item{"error": err.Error()}, PairedItem: PairedItem{Item: i}})
				continue
			}
			return out, &ItemError{Index: i, Kind: kind, Err: err}
		}
		for _, res := range results {
			out = append(out, Output{JSON: res, PairedItem: PairedItem{Item: i}})
		}
	}

	log.WithFields(logrus.Fields{"outputs": len(out), "failed": failed}).Info("run finished")
	return out, nil
}

// binaries resolves an item's binary entries on demand.
type binaries struct {
	specs      map[string]attachment.Spec
	allowPaths bool
}

func (b binaries) Binary(property string) (*attachment.Attachment, error) {
	spec, ok := b.specs[property]
	if !ok {
		return nil, fmt.Errorf("item has no binary property %q", property)
	}
	return attachment.Resolve(spec, b.allowPaths)
}
