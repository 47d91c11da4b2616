package chat

import (
	"context"
	"errors"
	"testing"

	"crm-chat-server/internal/models"
)

func TestAuthorizeDecisionTable(t *testing.T) {
	db := openTestDB(t)
	policy := NewPolicy(db)
	ctx := context.Background()

	superadmin := createUser(t, db, "root", models.RoleSuperAdmin, nil)
	adminA := createUser(t, db, "adminA", models.RoleAdmin, nil)
	adminB := createUser(t, db, "adminB", models.RoleAdmin, nil)
	userA := createUser(t, db, "userA", models.RoleUser, &adminA.ID)
	userB := createUser(t, db, "userB", models.RoleUser, &adminB.ID)

	cases := []struct {
		name    string
		actor   *models.User
		target  string
		allowed bool
	}{
		{"admin to own user", adminA, userA.ID, true},
		{"admin to foreign user", adminA, userB.ID, false},
		{"admin to other admin", adminA, adminB.ID, false},
		{"user to own admin", userA, adminA.ID, true},
		{"user to foreign admin", userA, adminB.ID, false},
		{"user to sibling user", userA, userB.ID, false},
		{"superadmin to admin", superadmin, adminA.ID, true},
		{"superadmin to user", superadmin, userB.ID, true},
	}
	for _, tc := range cases {
		err := policy.Authorize(ctx, tc.actor, tc.target)
		if tc.allowed && err != nil {
			t.Errorf("%s: unexpected denial: %v", tc.name, err)
		}
		if !tc.allowed && !errors.Is(err, ErrAccessDenied) {
			t.Errorf("%s: got %v, want ErrAccessDenied", tc.name, err)
		}
	}
}

func TestAuthorizeUnknownTarget(t *testing.T) {
	db := openTestDB(t)
	policy := NewPolicy(db)

	admin := createUser(t, db, "admin", models.RoleAdmin, nil)
	err := policy.Authorize(context.Background(), admin, "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListConversationsForRoles(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	policy := NewPolicy(db)
	ctx := context.Background()

	superadmin := createUser(t, db, "root", models.RoleSuperAdmin, nil)
	adminA := createUser(t, db, "adminA", models.RoleAdmin, nil)
	adminB := createUser(t, db, "adminB", models.RoleAdmin, nil)
	userA := createUser(t, db, "userA", models.RoleUser, &adminA.ID)
	userB := createUser(t, db, "userB", models.RoleUser, &adminB.ID)

	if _, err := store.Send(ctx, userA.ID, adminA.ID, "to my admin", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := store.Send(ctx, userB.ID, adminB.ID, "other tenant", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Admin sees only rooms shared with its own users
	summaries, err := policy.ListConversationsFor(ctx, adminA)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("admin sees %d conversations, want 1", len(summaries))
	}
	if summaries[0].RoomID != RoomID(userA.ID, adminA.ID) {
		t.Errorf("admin sees room %q", summaries[0].RoomID)
	}
	if summaries[0].UnreadCount == nil {
		t.Error("unread map must never be nil")
	}
	if got := summaries[0].UnreadCount[adminA.ID]; got != 1 {
		t.Errorf("admin unread in summary = %d, want 1", got)
	}
	if len(summaries[0].Participants) != 2 {
		t.Errorf("participants = %d, want 2", len(summaries[0].Participants))
	}

	// User sees the single room with its admin
	summaries, err = policy.ListConversationsFor(ctx, userA)
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].RoomID != RoomID(userA.ID, adminA.ID) {
		t.Fatalf("user sees %d conversations", len(summaries))
	}

	// Superadmin sees everything
	summaries, err = policy.ListConversationsFor(ctx, superadmin)
	if err != nil {
		t.Fatalf("superadmin list: %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("superadmin sees %d conversations, want 2", len(summaries))
	}
}

func TestListConversationsForUnmanagedUser(t *testing.T) {
	db := openTestDB(t)
	policy := NewPolicy(db)

	orphan := createUser(t, db, "orphan", models.RoleUser, nil)
	summaries, err := policy.ListConversationsFor(context.Background(), orphan)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("orphan user sees %d conversations, want 0", len(summaries))
	}
}

func TestContacts(t *testing.T) {
	db := openTestDB(t)
	policy := NewPolicy(db)
	ctx := context.Background()

	superadmin := createUser(t, db, "root", models.RoleSuperAdmin, nil)
	admin := createUser(t, db, "admin", models.RoleAdmin, nil)
	user1 := createUser(t, db, "user1", models.RoleUser, &admin.ID)
	createUser(t, db, "user2", models.RoleUser, &admin.ID)

	contacts, err := policy.Contacts(ctx, admin)
	if err != nil {
		t.Fatalf("admin contacts: %v", err)
	}
	if len(contacts) != 2 {
		t.Errorf("admin contacts = %d, want 2 managed users", len(contacts))
	}

	contacts, err = policy.Contacts(ctx, user1)
	if err != nil {
		t.Fatalf("user contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != admin.ID {
		t.Errorf("user contacts should be exactly their admin")
	}

	contacts, err = policy.Contacts(ctx, superadmin)
	if err != nil {
		t.Fatalf("superadmin contacts: %v", err)
	}
	if len(contacts) != 3 {
		t.Errorf("superadmin contacts = %d, want 3 (everyone else)", len(contacts))
	}
}
