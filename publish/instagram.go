package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultGraphBase = "https://graph.facebook.com/v18.0"

// InstagramCredentials mirrors instagram_credentials.json. The
// temporary token is the long-lived secondary secret exchanged for a
// fresh access token when the current one expires.
type InstagramCredentials struct {
	AccessToken    string `json:"Instagram_AccessToken"`
	TemporaryToken string `json:"Temporary_Token"`
	BusinessID     string `json:"Instagram_Business_ID"`
	AppID          string `json:"App_ID"`
	AppSecret      string `json:"App_Secret"`
}

// graphError is a non-2xx Graph API response payload.
type graphError struct {
	Message string
}

func (e *graphError) Error() string { return fmt.Sprintf("graph API: %s", e.Message) }

// isTokenError reports whether the Graph API rejected the access
// token as expired or invalid.
func isTokenError(err error) bool {
	var ge *graphError
	if !errors.As(err, &ge) {
		return false
	}
	msg := strings.ToLower(ge.Message)
	return strings.Contains(msg, "expired") || strings.Contains(msg, "invalid")
}

// Instagram publishes via the Graph API: host the media publicly,
// create a media container, publish it. An expired token gets exactly
// one refresh-and-retry before the publish is given up.
type Instagram struct {
	httpClient *http.Client
	graphBase  string
	credsFile  string
	store      ObjectStore
}

func NewInstagram(credsFile string, store ObjectStore) *Instagram {
	return &Instagram{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		graphBase:  defaultGraphBase,
		credsFile:  credsFile,
		store:      store,
	}
}

// Publish uploads videoFile and returns the Instagram post ID.
func (ig *Instagram) Publish(ctx context.Context, videoFile, caption string) (string, error) {
	publicURL, err := ig.store.UploadVideo(ctx, videoFile)
	if err != nil {
		return "", fmt.Errorf("host video: %w", err)
	}

	creds, err := ig.loadCredentials()
	if err != nil {
		return "", err
	}
	token := creds.AccessToken
	if token == "" {
		token = creds.TemporaryToken
	}

	creationID, err := ig.createContainer(ctx, creds.BusinessID, publicURL, caption, token)
	if isTokenError(err) {
		log.Printf("[instagram] Access token expired or invalid, exchanging temporary token: %v", err)
		token, err = ig.refreshToken(ctx, creds)
		if err != nil {
			return "", err
		}
		creationID, err = ig.createContainer(ctx, creds.BusinessID, publicURL, caption, token)
	}
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}

	postID, err := ig.publishContainer(ctx, creds.BusinessID, creationID, token)
	if err != nil {
		return "", fmt.Errorf("publish media: %w", err)
	}
	log.Printf("[instagram] ✅ Published post %s", postID)
	return postID, nil
}

// refreshToken performs the one-shot credential refresh: exchange the
// temporary token for a new long-lived access token and persist it.
func (ig *Instagram) refreshToken(ctx context.Context, creds *InstagramCredentials) (string, error) {
	if creds.TemporaryToken == "" || creds.AppID == "" || creds.AppSecret == "" {
		return "", fmt.Errorf("missing Instagram credentials for token exchange")
	}

	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", creds.AppID)
	params.Set("client_secret", creds.AppSecret)
	params.Set("fb_exchange_token", creds.TemporaryToken)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := ig.get(ctx, ig.graphBase+"/oauth/access_token?"+params.Encode(), &resp); err != nil {
		return "", fmt.Errorf("exchange token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("exchange token: no access token in response")
	}

	creds.AccessToken = resp.AccessToken
	if err := ig.saveCredentials(creds); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}
	log.Println("[instagram] Exchanged temporary token for a new long-lived token")
	return resp.AccessToken, nil
}

func (ig *Instagram) createContainer(ctx context.Context, businessID, videoURL, caption, token string) (string, error) {
	payload := url.Values{}
	payload.Set("video_url", videoURL)
	payload.Set("caption", caption)
	payload.Set("access_token", token)

	var resp struct {
		ID string `json:"id"`
	}
	if err := ig.postForm(ctx, fmt.Sprintf("%s/%s/media", ig.graphBase, businessID), payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no creation ID returned")
	}
	return resp.ID, nil
}

func (ig *Instagram) publishContainer(ctx context.Context, businessID, creationID, token string) (string, error) {
	payload := url.Values{}
	payload.Set("creation_id", creationID)
	payload.Set("access_token", token)

	var resp struct {
		ID string `json:"id"`
	}
	if err := ig.postForm(ctx, fmt.Sprintf("%s/%s/media_publish", ig.graphBase, businessID), payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no post ID returned")
	}
	return resp.ID, nil
}

func (ig *Instagram) postForm(ctx context.Context, endpoint string, payload url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ig.do(req, out)
}

func (ig *Instagram) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return ig.do(req, out)
}

func (ig *Instagram) do(req *http.Request, out any) error {
	resp, err := ig.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
			return &graphError{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		return &graphError{Message: body.Error.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (ig *Instagram) loadCredentials() (*InstagramCredentials, error) {
	data, err := os.ReadFile(ig.credsFile)
	if err != nil {
		return nil, fmt.Errorf("read Instagram credentials: %w", err)
	}
	var creds InstagramCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse Instagram credentials: %w", err)
	}
	if creds.BusinessID == "" {
		return nil, fmt.Errorf("Instagram credentials missing business ID")
	}
	return &creds, nil
}

func (ig *Instagram) saveCredentials(creds *InstagramCredentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ig.credsFile, data, 0600)
}
