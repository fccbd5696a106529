package providers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/lootguard/internal/providers"
)

func TestHTTPFriendsAreFriends(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]bool{"friends": true})
	}))
	defer srv.Close()

	p, err := providers.NewHTTPFriends(providers.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	friends, err := p.AreFriends(context.Background(), "actor-1", "owner-1")
	require.NoError(t, err)
	require.True(t, friends)
	require.Equal(t, "/are-friends", gotPath)
	require.Equal(t, map[string]string{"actor_id": "actor-1", "owner_id": "owner-1"}, gotBody)
}

func TestHTTPClansClanOf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"clan": "reavers"})
	}))
	defer srv.Close()

	p, err := providers.NewHTTPClans(providers.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	clan, err := p.ClanOf(context.Background(), "actor-1")
	require.NoError(t, err)
	require.Equal(t, "reavers", clan)
}

func TestHTTPZonesZonesOf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"zones": {"zone-a", "zone-b"}})
	}))
	defer srv.Close()

	p, err := providers.NewHTTPZones(providers.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	zones, err := p.ZonesOf(context.Background(), "actor-1")
	require.NoError(t, err)
	require.Equal(t, []string{"zone-a", "zone-b"}, zones)
}

func TestHTTPProviderTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	p, err := providers.NewHTTPTeams(providers.HTTPOptions{
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = p.SameTeam(context.Background(), "a", "b")
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestHTTPProviderRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := providers.NewHTTPFriends(providers.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.AreFriends(context.Background(), "a", "b")
	require.Error(t, err)
}

func TestNewHTTPProviderRequiresBaseURL(t *testing.T) {
	_, err := providers.NewHTTPFriends(providers.HTTPOptions{})
	require.Error(t, err)
}

func TestHTTPGameClockNow(t *testing.T) {
	want := time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]time.Time{"time": want})
	}))
	defer srv.Close()

	p, err := providers.NewHTTPGameClock(providers.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := p.Now(context.Background())
	require.NoError(t, err)
	require.True(t, want.Equal(got))
}
