package drive

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carlmjohnson/requests"
)

// FileLink resolves a drive file to a pre-authenticated, time-limited
// download URL and the file's display name. One upstream call, no
// retries; the caller decides what to do on failure.
func (c *Client) FileLink(ctx context.Context, itemID string) (string, string, error) {
	var item Item
	err := requests.URL(c.itemURL(itemID)).
		Client(c.http).
		CheckStatus(http.StatusOK).
		ToJSON(&item).
		Fetch(ctx)
	if err != nil {
		return "", "", classify(err)
	}
	if item.DownloadURL == "" {
		return "", "", fmt.Errorf("%w: item %s has no download url", ErrResolve, itemID)
	}
	return item.DownloadURL, item.Name, nil
}

// FolderLink creates an anonymous, view-scoped sharing link for a drive
// folder. The Graph API returns the existing link when one has already
// been created, so repeated calls are safe; concurrent calls for the
// same folder are collapsed into one upstream request.
func (c *Client) FolderLink(ctx context.Context, folderID string) (string, error) {
	url, err, _ := c.sharing.Do(folderID, func() (interface{}, error) {
		var res struct {
			Link struct {
				WebURL string `json:"webUrl"`
			} `json:"link"`
		}
		err := requests.URL(c.itemURL(folderID)+"/createLink").
			Client(c.http).
			BodyJSON(map[string]string{
				"type":  "view",
				"scope": "anonymous",
			}).
			CheckStatus(http.StatusOK, http.StatusCreated).
			ToJSON(&res).
			Fetch(ctx)
		if err != nil {
			return "", classify(err)
		}
		if res.Link.WebURL == "" {
			return "", fmt.Errorf("%w: folder %s has no share url", ErrResolve, folderID)
		}
		return res.Link.WebURL, nil
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}
