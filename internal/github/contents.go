package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
)

// commitMessage is the fixed message attached to every write.
const commitMessage = "Add journal"

// GetFile fetches a document and its version token. A 404 is not an error:
// the returned document has Exists=false and no token, and the caller
// supplies default content.
func (c *Client) GetFile(ctx context.Context, path string) (*Document, error) {
	statusCode, body, err := c.do(ctx, http.MethodGet, c.contentsPath(path), nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	switch statusCode {
	case http.StatusOK:
		doc, err := decodeDocument(path, body)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", path, err)
		}
		return doc, nil
	case http.StatusNotFound:
		return &Document{Path: path, Exists: false}, nil
	default:
		return nil, fmt.Errorf("get %s: %w", path, c.apiError(statusCode, body))
	}
}

// PutFile writes a document and returns the new version token. sha carries
// the token observed by the most recent read; it is empty only for the
// first write to a path that does not yet exist. A stale token yields
// ErrConflict without the write being applied.
func (c *Client) PutFile(ctx context.Context, path, content, sha string) (string, error) {
	request := putRequest{
		Message: commitMessage,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:     sha,
	}

	statusCode, body, err := c.do(ctx, http.MethodPut, c.contentsPath(path), request)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}

	switch statusCode {
	case http.StatusOK, http.StatusCreated:
		var response putResponse
		if err := json.Unmarshal(body, &response); err != nil || response.Content == nil {
			return "", fmt.Errorf("put %s: %w", path,
				apperrors.NewDecodeError("write response", err))
		}
		return response.Content.SHA, nil
	default:
		return "", fmt.Errorf("put %s: %w", path, c.apiError(statusCode, body))
	}
}

// List returns the entries of a directory. An empty path lists the
// repository root. When the API answers with a single object (the path is
// a file, not a directory) the result is normalized to a one-element list.
func (c *Client) List(ctx context.Context, path string) ([]Entry, error) {
	statusCode, body, err := c.do(ctx, http.MethodGet, c.contentsPath(path), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", displayPath(path), err)
	}

	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: %w", displayPath(path), c.apiError(statusCode, body))
	}

	entries, err := decodeListing(body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", displayPath(path), err)
	}
	return entries, nil
}

// decodeDocument decodes a single-file contents response into a Document.
func decodeDocument(path string, body []byte) (*Document, error) {
	var payload contentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewDecodeError("file response", err)
	}

	// The API wraps base64 lines with newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, apperrors.NewDecodeError("content encoding", err)
	}

	if !utf8.Valid(raw) {
		return nil, apperrors.NewDecodeError("text encoding", nil)
	}

	return &Document{
		Path:    path,
		Content: string(raw),
		SHA:     payload.SHA,
		Exists:  true,
	}, nil
}

// decodeListing decodes a contents response as a directory listing,
// falling back to the single-object shape.
func decodeListing(body []byte) ([]Entry, error) {
	var payloads []contentPayload
	if err := json.Unmarshal(body, &payloads); err == nil {
		entries := make([]Entry, 0, len(payloads))
		for i := range payloads {
			entries = append(entries, payloads[i].entry())
		}
		return entries, nil
	}

	var single contentPayload
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, apperrors.NewDecodeError("listing response", err)
	}
	if single.Name == "" && single.Path == "" {
		return nil, apperrors.NewDecodeError("listing response", nil)
	}
	return []Entry{single.entry()}, nil
}

// displayPath renders the root path readably in error messages.
func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
