// Package drive is a client for the cloud drive hosting the music
// library, accessed through the Microsoft Graph API.
//
// The client authenticates with a client-credential grant. The access
// token is cached and refreshed by the oauth2 token source; it is never
// exposed to callers, who only ever see time-limited download URLs and
// anonymous share links.
package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

var (
	// ErrAuth indicates the client-credential exchange failed.
	ErrAuth = errors.New("drive: authentication failed")

	// ErrResolve indicates an upstream call failed or returned an
	// unexpected shape.
	ErrResolve = errors.New("drive: resolve failed")
)

// Config holds the client-credential grant parameters for the tenant
// hosting the drive.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// UserID is the drive owner whose files are served.
	UserID string
}

type Client struct {
	baseURL string
	userID  string
	http    *http.Client

	// collapses concurrent share link creation for the same folder
	sharing singleflight.Group
}

// NewClient returns a Client that authenticates with the given
// credentials. The context governs the lifetime of token refreshes.
func NewClient(ctx context.Context, cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Timeout: 30 * time.Second,
	})
	hc := cc.Client(ctx)
	hc.Timeout = 30 * time.Second
	return &Client{
		baseURL: DefaultBaseURL,
		userID:  cfg.UserID,
		http:    hc,
	}
}

// An Item is a file or folder in the drive. Exactly one of File and
// Folder is set.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	File        *File   `json:"file"`
	Folder      *Folder `json:"folder"`
	Size        int64   `json:"size"`
	DownloadURL string  `json:"@microsoft.graph.downloadUrl"`
}

type File struct {
	MimeType string `json:"mimeType"`
}

type Folder struct {
	ChildCount int `json:"childCount"`
}

func (c *Client) itemURL(itemID string) string {
	return fmt.Sprintf("%s/users/%s/drive/items/%s", c.baseURL, c.userID, itemID)
}

// classify maps a transport error to the package error taxonomy.
func classify(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", ErrResolve, err)
}
