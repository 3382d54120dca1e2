package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
)

// SearchCode looks up documents by content, scoped to the configured
// repository and to markdown files. An empty query falls back to listing
// the repository root, matching the interactive browse behavior.
//
// The search index on the remote side may lag behind the repository, so
// results are not guaranteed exhaustive. The index crawler therefore never
// uses this; it always walks the tree with List.
func (c *Client) SearchCode(ctx context.Context, query string) ([]Entry, error) {
	if query == "" {
		return c.List(ctx, "")
	}

	scoped := fmt.Sprintf("%s repo:%s/%s language:markdown", query, c.owner, c.repo)
	path := "/search/code?q=" + url.QueryEscape(scoped)

	statusCode, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: %w", query, c.apiError(statusCode, body))
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("search %q: %w", query,
			apperrors.NewDecodeError("search response", err))
	}

	entries := make([]Entry, 0, len(response.Items))
	for _, item := range response.Items {
		entries = append(entries, Entry{Name: item.Name, Path: item.Path, Kind: EntryFile})
	}

	return entries, nil
}
