package lomavis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lomavis/n8n-lomavis-go/internal/attachment"
)

type Resource string

const (
	ResourceCompetitor   Resource = "competitor"
	ResourceMedia        Resource = "media"
	ResourcePost         Resource = "post"
	ResourceProfileGroup Resource = "profileGroup"
)

type Operation string

const (
	OpList                       Operation = "list"
	OpSearch                     Operation = "search"
	OpCreate                     Operation = "create"
	OpCreateDraftAndSendApproval Operation = "createDraftAndSendApproval"
	OpDelete                     Operation = "delete"
	OpListByStatus               Operation = "listByStatus"
	OpSendApproval               Operation = "sendApproval"
	OpUpload                     Operation = "upload"
)

// Key selects one executor.
type Key struct {
	Resource  Resource
	Operation Operation
}

func (k Key) String() string { return fmt.Sprintf("%s_%s", k.Resource, k.Operation) }

// Item is one output record.
type Item map[string]any

// BinarySource gives access to the binary properties of the current record.
type BinarySource interface {
	Binary(property string) (*attachment.Attachment, error)
}

// Record is one input record: its position, its parameters and its binaries.
type Record struct {
	Index  int
	Params json.RawMessage
	Binary BinarySource
}

type Executor interface {
	Execute(ctx context.Context, rec Record) ([]Item, error)
}

type ExecutorFunc func(ctx context.Context, rec Record) ([]Item, error)

func (f ExecutorFunc) Execute(ctx context.Context, rec Record) ([]Item, error) { return f(ctx, rec) }

// Registry maps keys to executors.
type Registry map[Key]Executor

// Lookup returns the executor for k or an *UnsupportedError.
func (r Registry) Lookup(k Key) (Executor, error) {
	if e, ok := r[k]; ok {
		return e, nil
	}
	return nil, &UnsupportedError{Key: k}
}

// Keys returns the registered keys in a stable order.
func (r Registry) Keys() []Key {
	keys := make([]Key, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Registry wires every operation of s.
func (s *Service) Registry() Registry {
	return Registry{
		{ResourceCompetitor, OpList}:                 ExecutorFunc(s.CompetitorList),
		{ResourceProfileGroup, OpList}:               ExecutorFunc(s.ProfileGroupList),
		{ResourceProfileGroup, OpSearch}:             ExecutorFunc(s.ProfileGroupSearch),
		{ResourcePost, OpCreate}:                     ExecutorFunc(s.PostCreate),
		{ResourcePost, OpCreateDraftAndSendApproval}: ExecutorFunc(s.PostCreateDraftAndSendApproval),
		{ResourcePost, OpDelete}:                     ExecutorFunc(s.PostDelete),
		{ResourcePost, OpListByStatus}:               ExecutorFunc(s.PostListByStatus),
		{ResourcePost, OpSendApproval}:               ExecutorFunc(s.PostSendApproval),
		{ResourceMedia, OpUpload}:                    ExecutorFunc(s.MediaUpload),
	}
}
