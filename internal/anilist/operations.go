package anilist

import (
	"context"
	"fmt"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
)

// FetchViewer returns the profile of the token's owner.
func (c *Client) FetchViewer(ctx context.Context) (models.User, error) {
	var data struct {
		Viewer *wireUser `json:"Viewer"`
	}
	if err := c.do(ctx, "viewer", nil, &data); err != nil {
		return models.User{}, err
	}
	if data.Viewer == nil {
		return models.User{}, fmt.Errorf("anilist: viewer: %w", apperr.ErrNotFound)
	}
	return data.Viewer.toModel(), nil
}

// FetchLists returns every list userID keeps for category.
func (c *Client) FetchLists(ctx context.Context, userID int, category models.Category) (*catalog.Collection, error) {
	var data struct {
		MediaListCollection *wireCollection `json:"MediaListCollection"`
	}
	vars := map[string]any{"userId": userID, "type": category}
	if err := c.do(ctx, "media_list", vars, &data); err != nil {
		return nil, err
	}
	return data.MediaListCollection.toModel(category), nil
}

// PushUpdate saves e's status, progress and dates and returns the entry as
// stored remotely. The returned entry carries no media snapshot.
func (c *Client) PushUpdate(ctx context.Context, e models.Entry) (models.Entry, error) {
	progressVolumes := 0
	if e.ProgressVolumes != nil {
		progressVolumes = *e.ProgressVolumes
	}
	vars := map[string]any{
		"id":              e.ID,
		"progress":        e.Progress,
		"progressVolumes": progressVolumes,
		"startedAt":       fromDate(e.StartedAt),
		"completedAt":     fromDate(e.CompletedAt),
	}
	if e.Status != "" {
		vars["status"] = e.Status
	}
	var data struct {
		SaveMediaListEntry *wireEntry `json:"SaveMediaListEntry"`
	}
	if err := c.do(ctx, "update_media", vars, &data); err != nil {
		return models.Entry{}, err
	}
	if data.SaveMediaListEntry == nil {
		return models.Entry{}, fmt.Errorf("anilist: update_media: empty response: %w", apperr.ErrRemote)
	}
	return data.SaveMediaListEntry.toModel(), nil
}

// Search returns catalog media of category matching query, in the
// service's relevance order.
func (c *Client) Search(ctx context.Context, query string, category models.Category) ([]models.Media, error) {
	var data struct {
		Page *struct {
			Media []*wireMedia `json:"media"`
		} `json:"Page"`
	}
	vars := map[string]any{"search": query, "type": category}
	if err := c.do(ctx, "search", vars, &data); err != nil {
		return nil, err
	}
	if data.Page == nil {
		return nil, nil
	}
	out := make([]models.Media, 0, len(data.Page.Media))
	for _, m := range data.Page.Media {
		if m != nil {
			out = append(out, m.toModel())
		}
	}
	return out, nil
}
