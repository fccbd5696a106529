package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/lootguard/internal/services"
)

type fakeFriends struct {
	pairs map[[2]string]bool
	err   error
}

func (f *fakeFriends) AreFriends(_ context.Context, actorID, ownerID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pairs[[2]string{actorID, ownerID}], nil
}

type fakeClans struct {
	clans map[string]string
	err   error
}

func (f *fakeClans) ClanOf(_ context.Context, actorID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.clans[actorID], nil
}

type fakeTeams struct {
	same map[[2]string]bool
	err  error
}

func (f *fakeTeams) SameTeam(_ context.Context, actorID, ownerID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.same[[2]string{actorID, ownerID}], nil
}

func TestAreRelatedDisabledGloballyWinsOverProviders(t *testing.T) {
	friends := &fakeFriends{pairs: map[[2]string]bool{{"a", "b"}: true}}
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: false, UseFriends: true},
		friends, nil, nil,
	)

	require.False(t, svc.AreRelated(context.Background(), "a", "b"))
}

func TestAreRelatedViaFriends(t *testing.T) {
	friends := &fakeFriends{pairs: map[[2]string]bool{{"a", "b"}: true}}
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: true, UseFriends: true},
		friends, nil, nil,
	)

	require.True(t, svc.AreRelated(context.Background(), "a", "b"))
	require.False(t, svc.AreRelated(context.Background(), "a", "c"))
}

func TestAreRelatedViaSameClan(t *testing.T) {
	clans := &fakeClans{clans: map[string]string{"a": "reavers", "b": "reavers", "c": "drifters"}}
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: true, UseClans: true},
		nil, clans, nil,
	)

	require.True(t, svc.AreRelated(context.Background(), "a", "b"))
	require.False(t, svc.AreRelated(context.Background(), "a", "c"))
}

func TestAreRelatedEmptyClanDoesNotMatch(t *testing.T) {
	clans := &fakeClans{clans: map[string]string{}}
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: true, UseClans: true},
		nil, clans, nil,
	)

	require.False(t, svc.AreRelated(context.Background(), "a", "b"))
}

func TestAreRelatedViaTeam(t *testing.T) {
	teams := &fakeTeams{same: map[[2]string]bool{{"a", "b"}: true}}
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: true, UseTeams: true},
		nil, nil, teams,
	)

	require.True(t, svc.AreRelated(context.Background(), "a", "b"))
}

func TestAreRelatedProviderErrorFailsOpenPerSource(t *testing.T) {
	friends := &fakeFriends{err: errors.New("friends service down")}
	teams := &fakeTeams{same: map[[2]string]bool{{"a", "b"}: true}}
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: true, UseFriends: true, UseTeams: true},
		friends, nil, teams,
	)

	// Friends provider failure does not decide; teams still match.
	require.True(t, svc.AreRelated(context.Background(), "a", "b"))
}

func TestAreRelatedNilProvidersAreSkipped(t *testing.T) {
	svc := services.NewRelationshipService(
		services.RelationshipConfig{Honor: true, UseFriends: true, UseClans: true, UseTeams: true},
		nil, nil, nil,
	)

	require.False(t, svc.AreRelated(context.Background(), "a", "b"))
}
