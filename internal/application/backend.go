package application

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/plateforme-admin/internal/apiclient"
)

// Backend sends requests to the REST backend. *apiclient.Client satisfies it.
type Backend interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

var _ Backend = (*apiclient.Client)(nil)

func getJSON(ctx context.Context, b Backend, path string, query url.Values, out any) error {
	return b.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func sendJSON(ctx context.Context, b Backend, method, path string, query url.Values, body, out any) error {
	return b.Do(ctx, apiclient.Request{Method: method, Path: path, Query: query, Body: body}, out)
}

func sendForm(ctx context.Context, b Backend, method, path string, form *apiclient.Multipart, out any) error {
	return b.Do(ctx, apiclient.Request{Method: method, Path: path, Form: form}, out)
}

func deleteResource(ctx context.Context, b Backend, path string) error {
	return b.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: path}, nil)
}

// remoteError wraps a backend failure for the given operation, adding
// ErrNotFound to 404 responses.
func remoteError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if apiclient.IsNotFound(err) {
		return fmt.Errorf("%s: %w: %w", operation, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, strconv.FormatInt(id, 10))
}
