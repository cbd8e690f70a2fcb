package drive

import (
	"bytes"
	"context"
	"net/http"

	"github.com/carlmjohnson/requests"
)

// Children lists the direct children of a drive item, following
// pagination links until the listing is complete.
func (c *Client) Children(ctx context.Context, itemID string) ([]Item, error) {
	var items []Item
	next := c.itemURL(itemID) + "/children"
	for next != "" {
		var page struct {
			Value    []Item `json:"value"`
			NextLink string `json:"@odata.nextLink"`
		}
		err := requests.URL(next).
			Client(c.http).
			CheckStatus(http.StatusOK).
			ToJSON(&page).
			Fetch(ctx)
		if err != nil {
			return nil, classify(err)
		}
		items = append(items, page.Value...)
		next = page.NextLink
	}
	return items, nil
}

// A WalkFunc is called once per item found under the walk root. parent
// is the folder containing the item; for top level items it has ID
// "root" and an empty path.
type WalkFunc func(parent Item, path string, item Item) error

// Walk visits every item in the drive in depth-first order, starting at
// the root folder. Returning an error from fn stops the walk.
func (c *Client) Walk(ctx context.Context, fn WalkFunc) error {
	return c.walk(ctx, Item{ID: "root"}, "", fn)
}

func (c *Client) walk(ctx context.Context, parent Item, path string, fn WalkFunc) error {
	items, err := c.Children(ctx, parent.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		p := path + "/" + item.Name
		if err := fn(parent, p, item); err != nil {
			return err
		}
		if item.Folder != nil {
			if err := c.walk(ctx, item, p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Download fetches the content of a pre-authenticated download URL. The
// URL already embeds a short-lived credential, so the request is made
// without the Graph bearer token.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	err := requests.URL(url).
		CheckStatus(http.StatusOK).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return buf.Bytes(), nil
}
