package push

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	fcmScope        = "https://www.googleapis.com/auth/firebase.messaging"
	defaultTokenURI = "https://oauth2.googleapis.com/token"
)

// FCMClient sends messages through the FCM HTTP v1 API, minting OAuth2
// access tokens from a service-account key. A client built from incomplete
// credentials is still constructed; it just reports not ready.
type FCMClient struct {
	projectID   string
	clientEmail string
	key         *rsa.PrivateKey

	tokenURI string
	endpoint string // messages:send URL, overridable in tests
	http     *http.Client

	mu          sync.Mutex
	accessToken string
	expiry      time.Time
}

// NewFCMClient builds a client from discrete credential fields. privateKeyPEM
// may be empty or invalid; that only makes the client not ready.
func NewFCMClient(projectID, clientEmail, privateKeyPEM string) *FCMClient {
	c := &FCMClient{
		projectID:   projectID,
		clientEmail: clientEmail,
		tokenURI:    defaultTokenURI,
		http:        &http.Client{Timeout: 5 * time.Second},
	}
	c.endpoint = fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", projectID)
	if privateKeyPEM != "" {
		key, err := parseRSAKey(privateKeyPEM)
		if err == nil {
			c.key = key
		}
	}
	return c
}

// NewFCMClientFromFile builds a client from a service-account JSON file.
func NewFCMClientFromFile(path string) (*FCMClient, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	var sa struct {
		ProjectID   string `json:"project_id"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		TokenURI    string `json:"token_uri"`
	}
	if err := json.Unmarshal(b, &sa); err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	c := NewFCMClient(sa.ProjectID, sa.ClientEmail, sa.PrivateKey)
	if sa.TokenURI != "" {
		c.tokenURI = sa.TokenURI
	}
	return c, nil
}

func (c *FCMClient) Ready() bool {
	return c != nil && c.projectID != "" && c.clientEmail != "" && c.key != nil
}

// Send delivers msg to one token and returns the provider message name.
func (c *FCMClient) Send(ctx context.Context, token string, msg Message) (string, error) {
	if !c.Ready() {
		return "", ErrTransportUnavailable
	}
	at, err := c.token(ctx)
	if err != nil {
		return "", fmt.Errorf("oauth token: %w", err)
	}

	// FCM v1 envelope; webpush block carries the browser notification.
	body, _ := json.Marshal(map[string]any{
		"message": map[string]any{
			"token":        token,
			"notification": map[string]string{"title": msg.Title, "body": msg.Body},
			"data":         msg.Data,
			"webpush": map[string]any{
				"notification": map[string]string{"title": msg.Title, "body": msg.Body},
			},
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+at)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fcm send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rb, &out); err != nil {
		return "", fmt.Errorf("fcm send: decode response: %w", err)
	}
	return out.Name, nil
}

// token returns a cached access token, minting a new one when within a
// minute of expiry.
func (c *FCMClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Until(c.expiry) > time.Minute {
		return c.accessToken, nil
	}

	assertion, err := c.signedJWT(time.Now())
	if err != nil {
		return "", err
	}
	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("token exchange: status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rb, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("token exchange: empty access_token")
	}
	c.accessToken = tok.AccessToken
	c.expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// signedJWT builds the RS256 service-account grant.
func (c *FCMClient) signedJWT(now time.Time) (string, error) {
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	claims, _ := json.Marshal(map[string]any{
		"iss":   c.clientEmail,
		"scope": fcmScope,
		"aud":   c.tokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	unsigned := b64url(header) + "." + b64url(claims)
	sum := sha256.Sum256([]byte(unsigned))
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.key, crypto.SHA256, sum[:])
	if err != nil {
		return "", err
	}
	return unsigned + "." + b64url(sig), nil
}

func b64url(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func parseRSAKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	if k, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA key")
		}
		return rk, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
