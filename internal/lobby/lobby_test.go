package lobby_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/cardtable/webclient/internal/lobby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	ruleSets []adminapi.RuleSetSummary
	ruleErr  error
	created  []adminapi.CreateGameRequest
	invites  []string
	started  bool

	players map[string][]adminapi.PlayerSummary
	queries []string
	delays  map[string]time.Duration
}

func (f *fakeAPI) RuleSets(context.Context) ([]adminapi.RuleSetSummary, error) {
	return f.ruleSets, f.ruleErr
}

func (f *fakeAPI) CreateGame(_ context.Context, req adminapi.CreateGameRequest) (string, error) {
	f.created = append(f.created, req)
	return "g-7", nil
}

func (f *fakeAPI) Invite(_ context.Context, gameID, playerUID string) (adminapi.Invitation, error) {
	f.invites = append(f.invites, gameID+"/"+playerUID)
	if playerUID == "u-anon" {
		return adminapi.Invitation{}, nil
	}
	return adminapi.Invitation{Username: "user-" + playerUID, Status: "invited"}, nil
}

func (f *fakeAPI) StartGame(context.Context, string) (bool, error) {
	return f.started, nil
}

func (f *fakeAPI) SearchPlayers(_ context.Context, query string) ([]adminapi.PlayerSummary, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	delay := f.delays[query]
	players, ok := f.players[query]
	f.mu.Unlock()
	time.Sleep(delay)
	if !ok {
		return nil, errors.New("search unavailable")
	}
	return players, nil
}

func (f *fakeAPI) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func TestSettingsValidate(t *testing.T) {
	valid := lobby.DefaultSettings()
	valid.RuleSetID = "standard-rules"

	scenarios := []struct {
		description string
		change      func(*lobby.Settings)
		expected    error
	}{
		{"valid", func(*lobby.Settings) {}, nil},
		{"no rule set", func(s *lobby.Settings) { s.RuleSetID = "" }, lobby.ErrNoRuleSet},
		{"game type", func(s *lobby.Settings) { s.GameType = "blitz" }, lobby.ErrInvalidGameType},
		{"five players", func(s *lobby.Settings) { s.MaxPlayers = 5 }, lobby.ErrInvalidMaxPlayers},
		{"negative time", func(s *lobby.Settings) { s.TimeLimit = -1 }, lobby.ErrInvalidTimeLimit},
		{"long time", func(s *lobby.Settings) { s.TimeLimit = 61 }, lobby.ErrInvalidTimeLimit},
		{"tournament with AI", func(s *lobby.Settings) { s.GameType, s.UseAI, s.TimeLimit = "tournament", true, 60 }, nil},
	}
	for _, sc := range scenarios {
		t.Run(sc.description, func(t *testing.T) {
			s := valid
			sc.change(&s)
			err := s.Validate()
			if sc.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, sc.expected)
			}
		})
	}
}

func TestLoadRuleSets(t *testing.T) {
	api := &fakeAPI{ruleSets: []adminapi.RuleSetSummary{{ID: "crazy-eights"}, {ID: "standard-rules"}}}
	setup := lobby.NewSetup(api)
	rules, err := setup.LoadRuleSets(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 2)
	assert.Equal(t, "crazy-eights", setup.Settings().RuleSetID)

	// Falls back to the standard rules.
	api = &fakeAPI{ruleErr: errors.New("boom")}
	setup = lobby.NewSetup(api)
	rules, err = setup.LoadRuleSets(context.Background())
	require.Error(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "standard-rules", rules[0].ID)
	assert.Equal(t, "standard-rules", setup.Settings().RuleSetID)
	assert.Equal(t, rules, setup.RuleSets())
}

func TestSetupFlow(t *testing.T) {
	api := &fakeAPI{ruleSets: []adminapi.RuleSetSummary{{ID: "standard-rules"}}}
	setup := lobby.NewSetup(api)
	ctx := context.Background()

	require.ErrorIs(t, setup.Invite(ctx, adminapi.PlayerSummary{UserUID: "u1"}), lobby.ErrNoGame)
	require.ErrorIs(t, setup.Start(ctx), lobby.ErrNoGame)
	_, err := setup.Create(ctx)
	require.ErrorIs(t, err, lobby.ErrNoRuleSet)

	_, err = setup.LoadRuleSets(ctx)
	require.NoError(t, err)
	setup.Update(func(s *lobby.Settings) {
		s.MaxPlayers = 3
		s.UseAI = true
	})
	id, err := setup.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "g-7", id)
	assert.Equal(t, []adminapi.CreateGameRequest{{
		GameType: "standard", MaxPlayers: 3, UseAI: true, RuleSetID: "standard-rules",
	}}, api.created)
	_, err = setup.Create(ctx)
	require.ErrorIs(t, err, lobby.ErrAlreadyCreated)

	// Settings are frozen once created.
	setup.Update(func(s *lobby.Settings) { s.MaxPlayers = 6 })
	assert.Equal(t, 3, setup.Settings().MaxPlayers)

	assert.Equal(t, 2, setup.RemainingSlots())
	require.NoError(t, setup.Invite(ctx, adminapi.PlayerSummary{UserUID: "u1", Username: "alice"}))
	require.ErrorIs(t, setup.Invite(ctx, adminapi.PlayerSummary{UserUID: "u1"}), lobby.ErrAlreadyInvited)
	require.NoError(t, setup.Invite(ctx, adminapi.PlayerSummary{UserUID: "u-anon", Username: "bob", DisplayName: "Bob"}))
	assert.Zero(t, setup.RemainingSlots())
	require.ErrorIs(t, setup.Invite(ctx, adminapi.PlayerSummary{UserUID: "u3"}), lobby.ErrNoSlots)

	assert.Equal(t, []lobby.Invited{
		{PlayerUID: "u1", Username: "user-u1", Status: "invited"},
		{PlayerUID: "u-anon", Username: "Bob", Status: "pending"},
	}, setup.Invited())
	assert.Equal(t, []string{"u1", "u-anon"}, setup.InvitedIDs())
	assert.Equal(t, []string{"g-7/u1", "g-7/u-anon"}, api.invites)

	require.ErrorIs(t, setup.Start(ctx), lobby.ErrNotStarted)
	api.started = true
	require.NoError(t, setup.Start(ctx))
	assert.True(t, setup.Started())
}

func TestSearchDebounces(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeAPI{players: map[string][]adminapi.PlayerSummary{
			"ali": {{UserUID: "u1", Username: "alice"}, {UserUID: "u2", Username: "alina"}},
		}}
		var mu sync.Mutex
		var published []lobby.Results
		search := lobby.NewSearch(api, lobby.DefaultSearchDelay, func(r lobby.Results) {
			mu.Lock()
			published = append(published, r)
			mu.Unlock()
		})
		search.Exclude([]string{"u2"})

		for _, term := range []string{"a", "al", "ali "} {
			search.Type(term)
			time.Sleep(200 * time.Millisecond)
		}
		synctest.Wait()
		assert.Empty(t, api.Queries(), "still typing")

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"ali"}, api.Queries())
		res := search.Results()
		assert.Equal(t, "ali", res.Term)
		assert.False(t, res.Loading)
		assert.Equal(t, []adminapi.PlayerSummary{{UserUID: "u1", Username: "alice"}}, res.Players)

		mu.Lock()
		require.NotEmpty(t, published)
		assert.Equal(t, res, published[len(published)-1])
		mu.Unlock()

		// Excluding an id later filters the current results.
		search.Exclude([]string{"u1", "u2"})
		assert.Empty(t, search.Results().Players)
	})
}

func TestSearchDropsStaleResponses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeAPI{
			players: map[string][]adminapi.PlayerSummary{
				"bo":  {{UserUID: "u5", Username: "bob"}},
				"bor": {{UserUID: "u6", Username: "boris"}},
			},
			delays: map[string]time.Duration{"bo": 3 * time.Second},
		}
		search := lobby.NewSearch(api, 300*time.Millisecond, nil)

		search.Type("bo")
		time.Sleep(time.Second) // "bo" request in flight.
		search.Type("bor")
		time.Sleep(5 * time.Second)
		synctest.Wait()

		assert.Equal(t, []string{"bo", "bor"}, api.Queries())
		res := search.Results()
		assert.Equal(t, "bor", res.Term)
		assert.Equal(t, "boris", res.Players[0].Username)
	})
}

func TestSearchBlankAndErrors(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &fakeAPI{players: map[string][]adminapi.PlayerSummary{}}
		search := lobby.NewSearch(api, 300*time.Millisecond, nil)

		search.Type("zed")
		time.Sleep(time.Second)
		synctest.Wait()
		res := search.Results()
		require.Error(t, res.Err)
		assert.Equal(t, "zed", res.Term)

		search.Type("zed")
		search.Type("   ")
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"zed"}, api.Queries(), "blank term never queries")
		assert.Equal(t, lobby.Results{}, search.Results())

		search.Type("x")
		search.Stop()
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"zed"}, api.Queries())
	})
}
