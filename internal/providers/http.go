package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every provider round trip. Providers sit on the hot
// decision path, so the budget is deliberately small; callers fail open when
// it is exceeded.
const DefaultTimeout = 150 * time.Millisecond

// HTTPOptions configures the HTTP-backed provider adapters.
type HTTPOptions struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

type httpProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func newHTTPProvider(opts HTTPOptions) (httpProvider, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return httpProvider{}, fmt.Errorf("providers: base url is required")
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return httpProvider{baseURL: base, client: client, timeout: timeout}, nil
}

func (p httpProvider) post(ctx context.Context, path string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("providers: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("providers: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("providers: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("providers: %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("providers: %s: decode response: %w", path, err)
	}
	return nil
}

// HTTPFriends queries a friends service over HTTP.
type HTTPFriends struct {
	httpProvider
}

// NewHTTPFriends constructs an HTTP friends provider.
func NewHTTPFriends(opts HTTPOptions) (*HTTPFriends, error) {
	p, err := newHTTPProvider(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPFriends{httpProvider: p}, nil
}

func (p *HTTPFriends) AreFriends(ctx context.Context, actorID, ownerID string) (bool, error) {
	var out struct {
		Friends bool `json:"friends"`
	}
	in := map[string]string{"actor_id": actorID, "owner_id": ownerID}
	if err := p.post(ctx, "/are-friends", in, &out); err != nil {
		return false, err
	}
	return out.Friends, nil
}

// HTTPClans queries a clan service over HTTP.
type HTTPClans struct {
	httpProvider
}

// NewHTTPClans constructs an HTTP clan provider.
func NewHTTPClans(opts HTTPOptions) (*HTTPClans, error) {
	p, err := newHTTPProvider(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPClans{httpProvider: p}, nil
}

func (p *HTTPClans) ClanOf(ctx context.Context, actorID string) (string, error) {
	var out struct {
		Clan string `json:"clan"`
	}
	in := map[string]string{"actor_id": actorID}
	if err := p.post(ctx, "/clan-of", in, &out); err != nil {
		return "", err
	}
	return out.Clan, nil
}

// HTTPTeams queries a team service over HTTP.
type HTTPTeams struct {
	httpProvider
}

// NewHTTPTeams constructs an HTTP team provider.
func NewHTTPTeams(opts HTTPOptions) (*HTTPTeams, error) {
	p, err := newHTTPProvider(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPTeams{httpProvider: p}, nil
}

func (p *HTTPTeams) SameTeam(ctx context.Context, actorID, ownerID string) (bool, error) {
	var out struct {
		SameTeam bool `json:"same_team"`
	}
	in := map[string]string{"actor_id": actorID, "owner_id": ownerID}
	if err := p.post(ctx, "/same-team", in, &out); err != nil {
		return false, err
	}
	return out.SameTeam, nil
}

// HTTPZones queries a zone-membership service over HTTP.
type HTTPZones struct {
	httpProvider
}

// NewHTTPZones constructs an HTTP zone provider.
func NewHTTPZones(opts HTTPOptions) (*HTTPZones, error) {
	p, err := newHTTPProvider(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPZones{httpProvider: p}, nil
}

func (p *HTTPZones) ZonesOf(ctx context.Context, actorID string) ([]string, error) {
	var out struct {
		Zones []string `json:"zones"`
	}
	in := map[string]string{"actor_id": actorID}
	if err := p.post(ctx, "/zones-of", in, &out); err != nil {
		return nil, err
	}
	return out.Zones, nil
}

// HTTPGameClock queries the host's in-game clock over HTTP.
type HTTPGameClock struct {
	httpProvider
}

// NewHTTPGameClock constructs an HTTP game clock.
func NewHTTPGameClock(opts HTTPOptions) (*HTTPGameClock, error) {
	p, err := newHTTPProvider(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPGameClock{httpProvider: p}, nil
}

func (p *HTTPGameClock) Now(ctx context.Context) (time.Time, error) {
	var out struct {
		Time time.Time `json:"time"`
	}
	if err := p.post(ctx, "/now", map[string]string{}, &out); err != nil {
		return time.Time{}, err
	}
	return out.Time, nil
}
