// Package service orchestrates repository registration: normalize the
// descriptor, merge it into the projects document, propagate the merged
// document downstream, and report the outcome with before/after snapshots.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/minegate/minegate/internal/audit"
	"github.com/minegate/minegate/internal/descriptor"
	"github.com/minegate/minegate/internal/propagate"
	"github.com/minegate/minegate/internal/registry"
	"github.com/minegate/minegate/internal/vcs"
)

// Terminal states recorded in the audit journal.
const (
	StateCompleted         = "completed"
	StateFailedValidation  = "failed_validation"
	StateFailedStore       = "failed_store"
	StateFailedRejected    = "failed_downstream_rejected"
	StateFailedUnreachable = "failed_downstream_unreachable"
)

// Result is a completed registration.
type Result struct {
	Message            string            `json:"message"`
	Before             registry.Registry `json:"before"`
	After              registry.Registry `json:"after"`
	DownstreamResponse json.RawMessage   `json:"downstream_response,omitempty"`
}

// CheckResult is the outcome of a read-only downstream reachability probe.
type CheckResult struct {
	DownstreamURL    string          `json:"downstream_url"`
	ConnectionStatus string          `json:"connection_status"`
	Response         json.RawMessage `json:"response,omitempty"`
}

// Service wires the normalizer, store, and propagation client together.
// Journal and committer are optional; when present they record every
// attempt and every committed merge respectively, but never fail one.
type Service struct {
	store     *registry.Store
	client    *propagate.Client
	defaults  descriptor.Defaults
	journal   *audit.Journal
	committer *vcs.Committer
}

// New creates a registration service.
func New(store *registry.Store, client *propagate.Client, defaults descriptor.Defaults) *Service {
	return &Service{store: store, client: client, defaults: defaults}
}

// WithJournal attaches an audit journal.
func (s *Service) WithJournal(j *audit.Journal) *Service {
	s.journal = j
	return s
}

// WithCommitter attaches a settings git committer.
func (s *Service) WithCommitter(c *vcs.Committer) *Service {
	s.committer = c
	return s
}

// Register runs one registration to completion. On a downstream failure the
// returned *Error carries the already-committed before/after snapshots; the
// store is never rolled back and propagation is never retried here.
func (s *Service) Register(ctx context.Context, d descriptor.Descriptor) (*Result, error) {
	entries, err := descriptor.Normalize(d, s.defaults)
	if err != nil {
		serr := &Error{Kind: KindValidation, Message: "invalid repository descriptor", err: err}
		s.record(ctx, nil, StateFailedValidation, serr, nil, nil)
		return nil, serr
	}
	ids := sortedIDs(entries)

	before, after, err := s.store.Merge(entries)
	if err != nil {
		serr := &Error{Kind: KindStore, Message: "failed to update projects", err: err}
		s.record(ctx, ids, StateFailedStore, serr, nil, nil)
		return nil, serr
	}

	s.commit(ids)

	// The store lock is long released here; the network call must not
	// extend the critical section.
	res, err := s.client.Propagate(ctx, after)
	if err != nil {
		serr := &Error{Kind: KindUnreachable, Message: "failed to reach execution service", Before: before, After: after, err: err}
		s.record(ctx, ids, StateFailedUnreachable, serr, before, after)
		return nil, serr
	}

	switch res.Status {
	case propagate.StatusRejected:
		serr := &Error{
			Kind:    KindRejected,
			Message: fmt.Sprintf("execution service rejected the update (HTTP %d)", res.StatusCode),
			Details: res.Body,
			Before:  before,
			After:   after,
		}
		s.record(ctx, ids, StateFailedRejected, serr, before, after)
		return nil, serr
	case propagate.StatusUnreachable:
		serr := &Error{
			Kind:    KindUnreachable,
			Message: fmt.Sprintf("cannot connect to execution service at %s", s.client.BaseURL()),
			Before:  before,
			After:   after,
		}
		s.record(ctx, ids, StateFailedUnreachable, serr, before, after)
		return nil, serr
	}

	result := &Result{
		Message:            "Repository added successfully",
		Before:             before,
		After:              after,
		DownstreamResponse: res.Body,
	}
	s.record(ctx, ids, StateCompleted, nil, before, after)
	return result, nil
}

// CheckDownstream probes the downstream health endpoint without touching
// the projects document.
func (s *Service) CheckDownstream(ctx context.Context) CheckResult {
	h := s.client.Health(ctx)
	out := CheckResult{DownstreamURL: h.URL, ConnectionStatus: "failed"}
	if h.Reachable {
		out.ConnectionStatus = "success"
		out.Response = h.Response
	}
	return out
}

// Projects returns the current registry snapshot.
func (s *Service) Projects() (registry.Registry, error) {
	return s.store.Snapshot()
}

// Registrations returns recent audit records, newest first. Without a
// journal it returns an empty list.
func (s *Service) Registrations(ctx context.Context, limit int) ([]audit.Record, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.List(ctx, limit)
}

func (s *Service) commit(ids []string) {
	if s.committer == nil {
		return
	}
	msg := "Update projects: " + strings.Join(ids, ", ")
	if err := s.committer.Commit(msg); err != nil {
		log.Printf("[WARN] failed to commit projects change: %v", err)
	}
}

func (s *Service) record(ctx context.Context, ids []string, state string, serr *Error, before, after registry.Registry) {
	if s.journal == nil {
		return
	}
	rec := audit.Record{
		Projects: ids,
		State:    state,
		Before:   before,
		After:    after,
	}
	if serr != nil {
		rec.Error = serr.Error()
	}
	if _, err := s.journal.Append(ctx, rec); err != nil {
		log.Printf("[WARN] failed to append audit record: %v", err)
	}
}

func sortedIDs(entries map[registry.ProjectID]registry.ProjectEntry) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
