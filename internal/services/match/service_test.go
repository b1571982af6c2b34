package match

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/repo/postgres"
	"github.com/maxjeon97/friender/internal/services/geo"
)

type pairKey struct {
	viewing string
	viewed  string
}

type fakeStore struct {
	users       map[string]postgres.UserRecord
	views       map[pairKey]bool
	friendships map[pairKey]struct{}
	lastSearch  map[string]time.Time

	providerAreas map[string][]model.Area
	providerErr   error

	candidateQueries [][]string
	extraCandidates  []postgres.CandidateRecord

	providerOrigins []string
	txOps           []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]postgres.UserRecord),
		views:         make(map[pairKey]bool),
		friendships:   make(map[pairKey]struct{}),
		lastSearch:    make(map[string]time.Time),
		providerAreas: make(map[string][]model.Area),
	}
}

func (f *fakeStore) addUser(username, location string, radius int) {
	f.users[username] = postgres.UserRecord{
		Username:     username,
		FirstName:    "First-" + username,
		LastName:     "Last-" + username,
		Location:     location,
		FriendRadius: radius,
	}
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (postgres.UserRecord, error) {
	rec, ok := f.users[username]
	if !ok {
		return postgres.UserRecord{}, postgres.ErrUserNotFound
	}
	return rec, nil
}

func (f *fakeStore) Exists(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeStore) TouchLastSearch(_ context.Context, username string, at time.Time) error {
	f.lastSearch[username] = at
	return nil
}

func (f *fakeStore) FindByLocationCodes(_ context.Context, codes []string, excludeUsername, excludeViewedBy string) ([]postgres.CandidateRecord, error) {
	f.candidateQueries = append(f.candidateQueries, codes)

	codeSet := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		codeSet[code] = struct{}{}
	}

	out := []postgres.CandidateRecord{}
	for _, user := range f.users {
		if user.Username == excludeUsername {
			continue
		}
		if _, ok := codeSet[user.Location]; !ok {
			continue
		}
		if _, viewed := f.views[pairKey{excludeViewedBy, user.Username}]; viewed {
			continue
		}
		out = append(out, postgres.CandidateRecord{
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Location:  user.Location,
		})
	}
	out = append(out, f.extraCandidates...)
	return out, nil
}

func (f *fakeStore) ZipCodesInRadius(_ context.Context, originZip string, radius int) ([]model.Area, error) {
	f.providerOrigins = append(f.providerOrigins, originZip)
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	key := fmt.Sprintf("%s/%d", originZip, radius)
	areas, ok := f.providerAreas[key]
	if !ok {
		return []model.Area{}, nil
	}
	return areas, nil
}

func (f *fakeStore) LockPair(_ context.Context, _ pgx.Tx, username, otherUsername string) error {
	a, b := username, otherUsername
	if a > b {
		a, b = b, a
	}
	f.txOps = append(f.txOps, "lock:"+a+":"+b)
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, _ pgx.Tx, viewingUsername, viewedUsername string, liked bool, _ time.Time) error {
	f.txOps = append(f.txOps, "upsert:"+viewingUsername+":"+viewedUsername)
	f.views[pairKey{viewingUsername, viewedUsername}] = liked
	return nil
}

func (f *fakeStore) GetDecision(_ context.Context, _ pgx.Tx, viewingUsername, viewedUsername string) (bool, bool, error) {
	liked, found := f.views[pairKey{viewingUsername, viewedUsername}]
	return liked, found, nil
}

func (f *fakeStore) Create(_ context.Context, _ pgx.Tx, username, otherUsername string) error {
	a, b := username, otherUsername
	if a > b {
		a, b = b, a
	}
	f.friendships[pairKey{a, b}] = struct{}{}
	return nil
}

func (f *fakeStore) friendshipCount() int {
	return len(f.friendships)
}

func (f *fakeStore) areFriends(a, b string) bool {
	if a > b {
		a, b = b, a
	}
	_, ok := f.friendships[pairKey{a, b}]
	return ok
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

type fakeLimiter struct {
	err error
}

func (l *fakeLimiter) AllowDecision(context.Context, string) error {
	return l.err
}

func newTestService(store *fakeStore) *Service {
	return NewService(Dependencies{
		Profiles:    store,
		Candidates:  store,
		Radius:      store,
		Views:       store,
		Friendships: store,
		Limiter:     &fakeLimiter{},
		Tx:          fakeTxRunner{},
	}, Config{MaxRadiusMiles: 250})
}

func TestRecordDecisionMutualLikeMatches(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)
	svc := newTestService(store)

	matched, err := svc.RecordDecision(context.Background(), "alice", "bob", true)
	if err != nil {
		t.Fatalf("first like: %v", err)
	}
	if matched {
		t.Fatal("one-sided like must not match")
	}
	if store.friendshipCount() != 0 {
		t.Fatal("friendship created before reciprocal like")
	}

	matched, err = svc.RecordDecision(context.Background(), "bob", "alice", true)
	if err != nil {
		t.Fatalf("reciprocal like: %v", err)
	}
	if !matched {
		t.Fatal("reciprocal like must match")
	}
	if store.friendshipCount() != 1 {
		t.Fatalf("want exactly one friendship row, got %d", store.friendshipCount())
	}
	if !store.areFriends("alice", "bob") || !store.areFriends("bob", "alice") {
		t.Fatal("friendship must be symmetric")
	}
}

func TestRecordDecisionPassNeverMatches(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)
	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", true); err != nil {
		t.Fatalf("like: %v", err)
	}
	matched, err := svc.RecordDecision(context.Background(), "bob", "alice", false)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if matched {
		t.Fatal("pass must never match")
	}
	if store.friendshipCount() != 0 {
		t.Fatal("pass must not create a friendship")
	}
}

func TestRecordDecisionPassThenLikeMatches(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)
	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", true); err != nil {
		t.Fatal(err)
	}
	if matched, _ := svc.RecordDecision(context.Background(), "bob", "alice", false); matched {
		t.Fatal("pass matched")
	}

	// Bob changes their mind; overwrite policy lets the like replace the pass.
	matched, err := svc.RecordDecision(context.Background(), "bob", "alice", true)
	if err != nil {
		t.Fatal(err)
	}
	if !matched {
		t.Fatal("like after pass must match against alice's standing like")
	}
}

func TestRecordDecisionRepeatLikeIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)
	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordDecision(context.Background(), "bob", "alice", true); err != nil {
		t.Fatal(err)
	}

	matched, err := svc.RecordDecision(context.Background(), "alice", "bob", true)
	if err != nil {
		t.Fatal(err)
	}
	if !matched {
		t.Fatal("repeat like on a matched pair must still report matched")
	}
	if store.friendshipCount() != 1 {
		t.Fatalf("repeat like must not add rows, got %d", store.friendshipCount())
	}
}

func TestRecordDecisionOverwriteLikeWithPass(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)
	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", false); err != nil {
		t.Fatal(err)
	}
	if liked := store.views[pairKey{"alice", "bob"}]; liked {
		t.Fatal("overwrite must replace like with pass")
	}

	// Bob's like now lands on a stored pass.
	matched, err := svc.RecordDecision(context.Background(), "bob", "alice", true)
	if err != nil {
		t.Fatal(err)
	}
	if matched {
		t.Fatal("like against an overwritten pass must not match")
	}
}

func TestRecordDecisionValidation(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "alice", "alice", true); !errors.Is(err, ErrSelfDecision) {
		t.Fatalf("self decision: want ErrSelfDecision, got %v", err)
	}
	if _, err := svc.RecordDecision(context.Background(), "alice", "ghost", true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown viewed user: want ErrUserNotFound, got %v", err)
	}
	if _, err := svc.RecordDecision(context.Background(), "", "alice", true); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty viewer: want ErrValidation, got %v", err)
	}
}

func TestRecordDecisionRateLimited(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)

	limitErr := errors.New("too fast")
	svc := NewService(Dependencies{
		Profiles:    store,
		Candidates:  store,
		Radius:      store,
		Views:       store,
		Friendships: store,
		Limiter:     &fakeLimiter{err: limitErr},
		Tx:          fakeTxRunner{},
	}, Config{})

	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", true); !errors.Is(err, limitErr) {
		t.Fatalf("want limiter error, got %v", err)
	}
	if len(store.views) != 0 {
		t.Fatal("rate-limited decision must not be stored")
	}
}

func TestDiscoverCandidatesRadiusScenario(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "94510", 25)
	store.addUser("near", "94510", 25)
	store.addUser("alsoNear", "94511", 25)
	store.addUser("far", "94563", 25)

	store.providerAreas["94510/25"] = []model.Area{
		{ZipCode: "94510", Distance: 0, City: "Benicia", State: "CA"},
		{ZipCode: "94511", Distance: 4.2, City: "Bethel Island", State: "CA"},
	}
	store.providerAreas["94510/50"] = []model.Area{
		{ZipCode: "94510", Distance: 0, City: "Benicia", State: "CA"},
		{ZipCode: "94511", Distance: 4.2, City: "Bethel Island", State: "CA"},
		{ZipCode: "94563", Distance: 21.7, City: "Orinda", State: "CA"},
	}

	svc := newTestService(store)

	got, err := svc.DiscoverCandidates(context.Background(), "viewer", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("25mi radius: want 2 candidates, got %d", len(got))
	}
	for _, c := range got {
		if c.Username == "far" {
			t.Fatal("94563 candidate must be outside 25mi radius")
		}
		if c.Username == "viewer" {
			t.Fatal("viewer must be excluded from their own results")
		}
	}

	got, err = svc.DiscoverCandidates(context.Background(), "viewer", "", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("50mi radius: want 3 candidates, got %d", len(got))
	}

	found := false
	for _, c := range got {
		if c.Username == "far" {
			found = true
			if c.Area.ZipCode != "94563" || c.Area.City != "Orinda" {
				t.Fatalf("far candidate area mismatch: %+v", c.Area)
			}
		}
	}
	if !found {
		t.Fatal("94563 candidate must appear inside 50mi radius")
	}

	if _, ok := store.lastSearch["viewer"]; !ok {
		t.Fatal("discovery must stamp last_search_at")
	}
}

func TestDiscoverCandidatesExcludesViewed(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "94510", 25)
	store.addUser("liked", "94510", 25)
	store.addUser("passed", "94510", 25)
	store.addUser("unseen", "94510", 25)
	store.providerAreas["94510/25"] = []model.Area{{ZipCode: "94510"}}

	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "viewer", "liked", true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordDecision(context.Background(), "viewer", "passed", false); err != nil {
		t.Fatal(err)
	}

	got, err := svc.DiscoverCandidates(context.Background(), "viewer", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "unseen" {
		t.Fatalf("want only unseen candidate, got %+v", got)
	}
}

func TestDiscoverCandidatesEmptyProviderResult(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "99999", 25)
	svc := newTestService(store)

	got, err := svc.DiscoverCandidates(context.Background(), "viewer", "", 0)
	if err != nil {
		t.Fatalf("empty provider result must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %d", len(got))
	}
	if len(store.candidateQueries) != 0 {
		t.Fatal("zero codes must skip the candidate query")
	}
}

func TestDiscoverCandidatesUpstreamFailure(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "94510", 25)
	store.providerErr = fmt.Errorf("%w: status 503", geo.ErrUpstream)
	svc := newTestService(store)

	if _, err := svc.DiscoverCandidates(context.Background(), "viewer", "", 0); !errors.Is(err, geo.ErrUpstream) {
		t.Fatalf("provider failure must propagate ErrUpstream, got %v", err)
	}
}

func TestDiscoverCandidatesUnknownViewer(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	if _, err := svc.DiscoverCandidates(context.Background(), "ghost", "", 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestDiscoverCandidatesOriginOverride(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "94510", 25)
	store.addUser("localFriend", "94510", 25)
	store.addUser("remoteFriend", "94563", 25)

	store.providerAreas["94510/25"] = []model.Area{{ZipCode: "94510"}}
	store.providerAreas["94563/25"] = []model.Area{{ZipCode: "94563", City: "Orinda", State: "CA"}}

	svc := newTestService(store)

	got, err := svc.DiscoverCandidates(context.Background(), "viewer", "94563", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "remoteFriend" {
		t.Fatalf("override must search from 94563, got %+v", got)
	}
	if len(store.providerOrigins) != 1 || store.providerOrigins[0] != "94563" {
		t.Fatalf("provider must be queried with the override origin, got %v", store.providerOrigins)
	}

	// Without the override the search runs from the stored location.
	got, err = svc.DiscoverCandidates(context.Background(), "viewer", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "localFriend" {
		t.Fatalf("default search must use the stored location, got %+v", got)
	}

	if store.users["viewer"].Location != "94510" {
		t.Fatal("origin override must not mutate the stored profile location")
	}
}

func TestDiscoverCandidatesBadOriginOverride(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "94510", 25)
	svc := newTestService(store)

	for _, origin := range []string{"9451", "not-a-zip", "945100"} {
		if _, err := svc.DiscoverCandidates(context.Background(), "viewer", origin, 0); !errors.Is(err, ErrValidation) {
			t.Fatalf("origin %q: want ErrValidation, got %v", origin, err)
		}
	}
	if len(store.providerOrigins) != 0 {
		t.Fatal("invalid origin must never reach the provider")
	}
}

func TestRecordDecisionSerializesOnPairLock(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "94510", 25)
	store.addUser("bob", "94510", 25)
	svc := newTestService(store)

	if _, err := svc.RecordDecision(context.Background(), "alice", "bob", true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordDecision(context.Background(), "bob", "alice", true); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"lock:alice:bob",
		"upsert:alice:bob",
		"lock:alice:bob",
		"upsert:bob:alice",
	}
	if len(store.txOps) != len(want) {
		t.Fatalf("tx op sequence mismatch: %v", store.txOps)
	}
	for i, op := range want {
		if store.txOps[i] != op {
			t.Fatalf("tx op %d: want %s, got %s", i, op, store.txOps[i])
		}
	}
}

func TestDiscoverCandidatesDropsCodeOutsideProviderSet(t *testing.T) {
	store := newFakeStore()
	store.addUser("viewer", "94510", 25)
	store.addUser("near", "94510", 25)
	store.providerAreas["94510/25"] = []model.Area{{ZipCode: "94510"}}

	// A candidate row whose location is not in the provider's area set must
	// be dropped, not reported with a bogus area.
	store.extraCandidates = []postgres.CandidateRecord{
		{Username: "drifter", Location: "10001"},
	}

	svc := newTestService(store)

	got, err := svc.DiscoverCandidates(context.Background(), "viewer", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "near" {
		t.Fatalf("want only the in-area candidate, got %+v", got)
	}
}
