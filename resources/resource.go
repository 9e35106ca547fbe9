// Package resources provides typed CRUD access to the visitas reference data
// and visit records. Every endpoint has the same shape: GET /x, GET /x/:id,
// POST /x, PUT /x/:id and DELETE /x/:id.
package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-visitas/apiclient"
)

// Resource is one CRUD endpoint returning records of type T.
type Resource[T any] struct {
	client *apiclient.Client
	path   string
}

func NewResource[T any](client *apiclient.Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.DoJSON(ctx, http.MethodGet, r.path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.client.DoJSON(ctx, http.MethodGet, r.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create validates item locally, when T supports it, and posts it.
func (r *Resource[T]) Create(ctx context.Context, item *T) (*T, error) {
	if err := validate(item); err != nil {
		return nil, err
	}
	var created T
	if err := r.client.DoJSON(ctx, http.MethodPost, r.path, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int64, item *T) (*T, error) {
	if err := validate(item); err != nil {
		return nil, err
	}
	var updated T
	if err := r.client.DoJSON(ctx, http.MethodPut, r.itemPath(id), item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.client.DoJSON(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
}

// Collection is the untyped view of a Resource, for callers that pick the
// endpoint at runtime.
type Collection interface {
	Path() string
	ListAny(ctx context.Context) (any, error)
	GetAny(ctx context.Context, id int64) (any, error)
	CreateJSON(ctx context.Context, data []byte) (any, error)
	UpdateJSON(ctx context.Context, id int64, data []byte) (any, error)
	Delete(ctx context.Context, id int64) error
}

var _ Collection = (*Resource[Loja])(nil)

func (r *Resource[T]) ListAny(ctx context.Context) (any, error) {
	return r.List(ctx)
}

func (r *Resource[T]) GetAny(ctx context.Context, id int64) (any, error) {
	return r.Get(ctx, id)
}

func (r *Resource[T]) CreateJSON(ctx context.Context, data []byte) (any, error) {
	item, err := decodeStrict[T](data)
	if err != nil {
		return nil, err
	}
	return r.Create(ctx, item)
}

func (r *Resource[T]) UpdateJSON(ctx context.Context, id int64, data []byte) (any, error) {
	item, err := decodeStrict[T](data)
	if err != nil {
		return nil, err
	}
	return r.Update(ctx, id, item)
}

// decodeStrict rejects unknown fields so a mistyped field name fails locally.
func decodeStrict[T any](data []byte) (*T, error) {
	var item T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("decode %T: %w", item, err)
	}
	return &item, nil
}

func validate(item any) error {
	if e, ok := item.(Entity); ok {
		return e.Validate()
	}
	return nil
}
