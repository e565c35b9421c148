package users

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unfit20/unfit20/internal/models"
)

var errUnavailable = errors.New("remote store unreachable")

type fakeUsers struct {
	mu   sync.Mutex
	rows map[string]*models.User
	fail bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[string]*models.User{}}
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errUnavailable
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	c := *u
	c.IsFollowedByViewer = false
	return &c, nil
}

func (f *fakeUsers) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errUnavailable
	}
	c := *user
	f.rows[user.ID] = &c
	return nil
}

func (f *fakeUsers) AddFollowersCount(ctx context.Context, id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errUnavailable
	}
	if u, ok := f.rows[id]; ok {
		u.FollowersCount += delta
		if u.FollowersCount < 0 {
			u.FollowersCount = 0
		}
	}
	return nil
}

func (f *fakeUsers) AddFollowingCount(ctx context.Context, id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errUnavailable
	}
	if u, ok := f.rows[id]; ok {
		u.FollowingCount += delta
		if u.FollowingCount < 0 {
			u.FollowingCount = 0
		}
	}
	return nil
}

type edge struct{ follower, followee string }

type fakeFollows struct {
	mu    sync.Mutex
	edges map[edge]bool
	fail  bool
}

func newFakeFollows() *fakeFollows {
	return &fakeFollows{edges: map[edge]bool{}}
}

func (f *fakeFollows) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false, errUnavailable
	}
	return f.edges[edge{followerID, followeeID}], nil
}

func (f *fakeFollows) Create(ctx context.Context, follow *models.Follow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errUnavailable
	}
	f.edges[edge{follow.FollowerID, follow.FolloweeID}] = true
	return nil
}

func (f *fakeFollows) Delete(ctx context.Context, followerID, followeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errUnavailable
	}
	delete(f.edges, edge{followerID, followeeID})
	return nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "http://objects.test/unfit20-media/" + key, nil
}

func (f *fakeObjects) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func newTestService() (*Service, *fakeUsers, *fakeFollows, *fakeObjects) {
	users := newFakeUsers()
	follows := newFakeFollows()
	objects := newFakeObjects()
	return NewService(users, follows, objects), users, follows, objects
}

func seed(users *fakeUsers, id, name string) {
	users.rows[id] = &models.User{
		ID:        id,
		Name:      name,
		Email:     id + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
}

func strptr(s string) *string { return &s }

func TestFollowUnfollowParity(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()
	seed(users, "alice", "Alice")
	seed(users, "bob", "Bob")

	if !svc.Follow(ctx, "alice", "bob") {
		t.Fatal("Follow failed")
	}
	if users.rows["bob"].FollowersCount != 1 || users.rows["alice"].FollowingCount != 1 {
		t.Fatalf("counters after follow: followers=%d following=%d, want 1/1",
			users.rows["bob"].FollowersCount, users.rows["alice"].FollowingCount)
	}
	if !svc.IsFollowing(ctx, "alice", "bob") {
		t.Error("IsFollowing = false after follow")
	}

	// Repeat follow is a no-op with no counter drift.
	if !svc.Follow(ctx, "alice", "bob") {
		t.Fatal("repeat Follow should be a successful no-op")
	}
	if users.rows["bob"].FollowersCount != 1 {
		t.Errorf("followers after repeat follow = %d, want 1", users.rows["bob"].FollowersCount)
	}

	if !svc.Unfollow(ctx, "alice", "bob") {
		t.Fatal("Unfollow failed")
	}
	if users.rows["bob"].FollowersCount != 0 || users.rows["alice"].FollowingCount != 0 {
		t.Errorf("counters after unfollow: followers=%d following=%d, want 0/0",
			users.rows["bob"].FollowersCount, users.rows["alice"].FollowingCount)
	}

	if !svc.Unfollow(ctx, "alice", "bob") {
		t.Fatal("repeat Unfollow should be a successful no-op")
	}
	if users.rows["bob"].FollowersCount != 0 {
		t.Errorf("followers after repeat unfollow = %d, want 0", users.rows["bob"].FollowersCount)
	}
}

func TestFollowRejectsSelfAndUnknown(t *testing.T) {
	svc, users, follows, _ := newTestService()
	ctx := context.Background()
	seed(users, "alice", "Alice")

	if svc.Follow(ctx, "alice", "alice") {
		t.Error("self-follow should fail")
	}
	if svc.Follow(ctx, "alice", "ghost") {
		t.Error("following an unknown user should fail")
	}
	if svc.Follow(ctx, "", "alice") {
		t.Error("follow without identity should fail")
	}
	if len(follows.edges) != 0 {
		t.Error("rejected follows must not write edges")
	}
}

func TestGetProfileViewerAnnotation(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()
	seed(users, "alice", "Alice")
	seed(users, "bob", "Bob")
	svc.Follow(ctx, "alice", "bob")

	profile, err := svc.GetProfile(ctx, "alice", "bob")
	if err != nil || profile == nil {
		t.Fatalf("GetProfile = (%v, %v)", profile, err)
	}
	if !profile.IsFollowedByViewer {
		t.Error("viewer follows bob but annotation is false")
	}

	profile, _ = svc.GetProfile(ctx, "bob", "alice")
	if profile.IsFollowedByViewer {
		t.Error("bob does not follow alice but annotation is true")
	}

	// Absent user resolves to (nil, nil).
	profile, err = svc.GetProfile(ctx, "alice", "ghost")
	if err != nil || profile != nil {
		t.Errorf("missing profile = (%v, %v), want (nil, nil)", profile, err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _, objects := newTestService()
	ctx := context.Background()
	seed(users, "alice", "Alice")

	avatar := &AvatarUpload{Reader: bytes.NewReader([]byte("jpeg")), Size: 4, ContentType: "image/jpeg"}
	ok := svc.UpdateProfile(ctx, "alice", ProfileUpdate{
		Name:   strptr("Alice L."),
		Bio:    strptr("gopher"),
		Avatar: avatar,
	})
	if !ok {
		t.Fatal("UpdateProfile failed")
	}

	u := users.rows["alice"]
	if u.Name != "Alice L." {
		t.Errorf("name = %q", u.Name)
	}
	if u.Bio == nil || *u.Bio != "gopher" {
		t.Errorf("bio = %v", u.Bio)
	}
	if u.AvatarURL == nil || !strings.Contains(*u.AvatarURL, "profile_images/alice/") {
		t.Errorf("avatar URL = %v", u.AvatarURL)
	}
	if len(objects.objects) != 1 {
		t.Errorf("object store holds %d objects, want 1", len(objects.objects))
	}

	// Replacing the avatar removes the previous object.
	avatar2 := &AvatarUpload{Reader: bytes.NewReader([]byte("jpeg2")), Size: 5, ContentType: "image/jpeg"}
	if !svc.UpdateProfile(ctx, "alice", ProfileUpdate{Avatar: avatar2}) {
		t.Fatal("second UpdateProfile failed")
	}
	if len(objects.objects) != 1 {
		t.Errorf("stale avatar not cleaned up, store holds %d objects", len(objects.objects))
	}
	if users.rows["alice"].Name != "Alice L." {
		t.Error("nil name field must leave name untouched")
	}
}

func TestUpdateProfileFailures(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	if svc.UpdateProfile(ctx, "", ProfileUpdate{Name: strptr("x")}) {
		t.Error("update without identity should fail")
	}
	if svc.UpdateProfile(ctx, "ghost", ProfileUpdate{Name: strptr("x")}) {
		t.Error("update of unknown user should fail")
	}

	seed(users, "alice", "Alice")
	users.fail = true
	if svc.UpdateProfile(ctx, "alice", ProfileUpdate{Name: strptr("x")}) {
		t.Error("update against failing store should fail")
	}
}

func TestIsFollowingFailSoft(t *testing.T) {
	svc, _, follows, _ := newTestService()
	follows.fail = true
	if svc.IsFollowing(context.Background(), "alice", "bob") {
		t.Error("failed lookup must read as not following")
	}
}
