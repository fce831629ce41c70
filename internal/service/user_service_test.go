package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

func TestFollowUnfollowMirrorsEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	if err := env.social.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !env.user(t, alice.ID).IsFollowing(bob.ID) || !env.user(t, bob.ID).HasFollower(alice.ID) {
		t.Fatal("follow should write both edges")
	}

	if err := env.social.Follow(ctx, alice.ID, bob.ID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}

	if err := env.social.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if env.user(t, alice.ID).IsFollowing(bob.ID) || env.user(t, bob.ID).HasFollower(alice.ID) {
		t.Fatal("unfollow should remove both edges")
	}

	if err := env.social.Unfollow(ctx, alice.ID, bob.ID); !errors.Is(err, ErrNotFollowing) {
		t.Errorf("expected ErrNotFollowing, got %v", err)
	}
}

func TestFollowRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"follow self", func() error { return env.social.Follow(ctx, alice.ID, alice.ID) }, ErrFollowSelf},
		{"unfollow self", func() error { return env.social.Unfollow(ctx, alice.ID, alice.ID) }, ErrUnfollowSelf},
		{"follow missing", func() error { return env.social.Follow(ctx, alice.ID, uuid.New()) }, ErrUserNotFound},
		{"unfollow missing", func() error { return env.social.Unfollow(ctx, alice.ID, uuid.New()) }, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if len(env.user(t, alice.ID).Following) != 0 {
		t.Error("rejected follows must not write edges")
	}
}

func TestFollowPartialFailureLeavesOneSidedEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	env.users.fail["AddFollower"] = true
	if err := env.social.Follow(ctx, alice.ID, bob.ID); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if !env.user(t, alice.ID).IsFollowing(bob.ID) {
		t.Error("first write should have landed")
	}
	if env.user(t, bob.ID).HasFollower(alice.ID) {
		t.Error("second write should be missing")
	}

	env.users.fail["AddFollower"] = false
	report, err := NewReconcileService(env.users).Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.FollowersAdded != 1 || report.FollowersRemoved != 0 {
		t.Errorf("unexpected report %+v", report)
	}
	if !env.user(t, bob.ID).HasFollower(alice.ID) {
		t.Error("reconciliation should add the missing follower edge")
	}
}

func TestUnfollowPartialFailureRepairedByReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	if err := env.social.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	env.users.fail["RemoveFollower"] = true
	if err := env.social.Unfollow(ctx, alice.ID, bob.ID); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if env.user(t, alice.ID).IsFollowing(bob.ID) || !env.user(t, bob.ID).HasFollower(alice.ID) {
		t.Fatal("expected following removed and follower left behind")
	}

	env.users.fail["RemoveFollower"] = false
	report, err := NewReconcileService(env.users).Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.FollowersRemoved != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if env.user(t, bob.ID).HasFollower(alice.ID) {
		t.Error("stale follower edge should be removed")
	}

	report, err = NewReconcileService(env.users).Run(ctx)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if *report != (ReconcileReport{}) {
		t.Errorf("second run should be a no-op, got %+v", report)
	}
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	first, err := env.posts.Create(ctx, alice.ID, CreatePostInput{Description: "one"}, pngUpload())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := env.posts.Create(ctx, alice.ID, CreatePostInput{Description: "two"}, pngUpload())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.social.Follow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	own, err := env.social.OwnProfile(ctx, alice.ID)
	if err != nil {
		t.Fatalf("OwnProfile: %v", err)
	}
	if own.User.Email != "alice@example.com" || own.IsFollowing != nil {
		t.Errorf("own profile should carry email and no isFollowing: %+v", own)
	}
	gotIDs := []uuid.UUID{}
	for _, p := range own.Posts {
		gotIDs = append(gotIDs, p.ID)
	}
	if diff := cmp.Diff([]uuid.UUID{first.ID, second.ID}, gotIDs); diff != "" {
		t.Errorf("posts out of list order (-want +got):\n%s", diff)
	}
	if own.FollowersCount != 1 || own.FollowingCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", own.FollowersCount, own.FollowingCount)
	}

	public, err := env.social.PublicProfile(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("PublicProfile: %v", err)
	}
	if public.User.Email != "" {
		t.Error("public profile must not expose email")
	}
	if public.IsFollowing == nil || !*public.IsFollowing {
		t.Error("bob follows alice")
	}

	if _, err := env.social.PublicProfile(ctx, bob.ID, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	env.register(t, "Alfred")
	env.register(t, "bob")

	got, err := env.social.Search(ctx, alice.ID, "AL")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	names := []string{}
	for _, s := range got {
		names = append(names, s.Username)
	}
	if diff := cmp.Diff([]string{"Alfred"}, names); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}

	empty, err := env.social.Search(ctx, alice.ID, "   ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if diff := cmp.Diff([]domain.UserSummary{}, empty); diff != "" {
		t.Errorf("empty query should return an empty list:\n%s", diff)
	}
}
