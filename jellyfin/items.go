package jellyfin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jellysan-cli/jellysan/source"
)

// SearchItems runs a library-wide search for playable items matching the term.
func (c *Client) SearchItems(ctx context.Context, userID, term string, limit int) ([]*source.MediaItem, error) {
	query := url.Values{}
	query.Set("searchTerm", term)
	query.Set("IncludeItemTypes", "Movie,Episode,Series,Audio,AudioBook")
	query.Set("Recursive", "true")
	query.Set("Fields", "MediaSources")
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	var resp itemsDTO
	err := c.get(ctx, "/Users/"+url.PathEscape(userID)+"/Items", query, &resp)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	items := make([]*source.MediaItem, 0, len(resp.Items))
	for _, dto := range resp.Items {
		items = append(items, dto.toItem())
	}
	return items, nil
}

// Item fetches a single library item with its user playback state.
func (c *Client) Item(ctx context.Context, userID, itemID string) (*source.MediaItem, error) {
	var dto itemDTO
	err := c.get(ctx, "/Users/"+url.PathEscape(userID)+"/Items/"+url.PathEscape(itemID), nil, &dto)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}
	return dto.toItem(), nil
}

// Episodes lists the episodes of a series in play order.
func (c *Client) Episodes(ctx context.Context, userID, seriesID string) ([]*source.MediaItem, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("Fields", "MediaSources")

	var resp itemsDTO
	err := c.get(ctx, "/Shows/"+url.PathEscape(seriesID)+"/Episodes", query, &resp)
	if err != nil {
		return nil, fmt.Errorf("episodes of %s: %w", seriesID, err)
	}

	items := make([]*source.MediaItem, 0, len(resp.Items))
	for _, dto := range resp.Items {
		items = append(items, dto.toItem())
	}
	return items, nil
}

// NextUp returns the next unwatched episode of a series, if any.
func (c *Client) NextUp(ctx context.Context, userID, seriesID string) (*source.MediaItem, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("seriesId", seriesID)
	query.Set("Limit", "1")

	var resp itemsDTO
	err := c.get(ctx, "/Shows/NextUp", query, &resp)
	if err != nil {
		return nil, fmt.Errorf("next up for %s: %w", seriesID, err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0].toItem(), nil
}

// ResumeItems lists the user's continue-watching shelf.
func (c *Client) ResumeItems(ctx context.Context, userID string, limit int) ([]*source.MediaItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("Fields", "MediaSources")
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	var resp itemsDTO
	err := c.get(ctx, "/Users/"+url.PathEscape(userID)+"/Items/Resume", query, &resp)
	if err != nil {
		return nil, fmt.Errorf("resume items: %w", err)
	}

	items := make([]*source.MediaItem, 0, len(resp.Items))
	for _, dto := range resp.Items {
		items = append(items, dto.toItem())
	}
	return items, nil
}
