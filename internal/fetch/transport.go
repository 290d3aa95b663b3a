// Package fetch obtains the day's raw bulletin bytes from a publisher that
// blocks direct automated access, falling through an ordered list of
// transports until one of them delivers a payload.
package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Transport is a single strategy for obtaining the bulletin bytes.
type Transport interface {
	Name() string
	Fetch(ctx context.Context, date time.Time) ([]byte, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// expandURL substitutes the {date} placeholder in a URL template.
func expandURL(template string, date time.Time) string {
	return strings.ReplaceAll(template, "{date}", date.Format("2006-01-02"))
}

// RelayTransport fetches through the operator's trusted backend relay,
// which returns the raw spreadsheet bytes.
type RelayTransport struct {
	client  *http.Client
	baseURL string
}

func NewRelayTransport(baseURL string, timeout time.Duration) *RelayTransport {
	return &RelayTransport{client: newHTTPClient(timeout), baseURL: baseURL}
}

func (t *RelayTransport) Name() string { return "relay" }

func (t *RelayTransport) Fetch(ctx context.Context, date time.Time) ([]byte, error) {
	u := fmt.Sprintf("%s?date=%s", t.baseURL, date.Format("2006-01-02"))
	return doGet(ctx, t.client, u)
}

// DirectTransport issues a plain GET against the publisher's file URL with
// a browser user agent. Usually blocked, but costs one round trip to try.
type DirectTransport struct {
	client      *http.Client
	urlTemplate string
}

func NewDirectTransport(urlTemplate string, timeout time.Duration) *DirectTransport {
	return &DirectTransport{client: newHTTPClient(timeout), urlTemplate: urlTemplate}
}

func (t *DirectTransport) Name() string { return "direct" }

func (t *DirectTransport) Fetch(ctx context.Context, date time.Time) ([]byte, error) {
	return doGet(ctx, t.client, expandURL(t.urlTemplate, date))
}

// MirrorTransport fetches through a public mirror that wraps the source URL
// and answers with a JSON envelope carrying a base64-encoded payload.
type MirrorTransport struct {
	client         *http.Client
	name           string
	mirrorTemplate string // contains {url}
	fileTemplate   string // contains {date}
}

func NewMirrorTransport(name, mirrorTemplate, fileTemplate string, timeout time.Duration) *MirrorTransport {
	return &MirrorTransport{
		client:         newHTTPClient(timeout),
		name:           name,
		mirrorTemplate: mirrorTemplate,
		fileTemplate:   fileTemplate,
	}
}

func (t *MirrorTransport) Name() string { return t.name }

// mirrorEnvelope covers the two envelope shapes seen in the wild: a data
// URI in "contents" or a bare base64 string in "payload".
type mirrorEnvelope struct {
	Contents string `json:"contents"`
	Payload  string `json:"payload"`
}

func (t *MirrorTransport) Fetch(ctx context.Context, date time.Time) ([]byte, error) {
	target := expandURL(t.fileTemplate, date)
	u := strings.ReplaceAll(t.mirrorTemplate, "{url}", url.QueryEscape(target))

	body, err := doGet(ctx, t.client, u)
	if err != nil {
		return nil, err
	}

	var env mirrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Some mirrors hand back the raw bytes without an envelope.
		return body, nil
	}
	return decodeEnvelope(env)
}

func decodeEnvelope(env mirrorEnvelope) ([]byte, error) {
	encoded := env.Payload
	if encoded == "" {
		contents := env.Contents
		if i := strings.Index(contents, "base64,"); i >= 0 {
			encoded = contents[i+len("base64,"):]
		} else {
			// Envelope without base64 marker carries the content verbatim.
			return []byte(contents), nil
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mirror payload: %w", err)
	}
	return data, nil
}

func doGet(ctx context.Context, client *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}
