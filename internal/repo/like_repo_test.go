package repo

import (
	"testing"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func TestCreateLike_DuplicatePairRejected(t *testing.T) {
	db := newRepoDB(t, &domain.Like{})

	if _, err := CreateLike(db, "u1", "u2"); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if _, err := CreateLike(db, "u1", "u2"); err == nil {
		t.Fatalf("duplicate (liker, liked) pair was accepted")
	}
	// Reverse direction is a different pair.
	if _, err := CreateLike(db, "u2", "u1"); err != nil {
		t.Fatalf("CreateLike reverse pair: %v", err)
	}
}

func TestGetLike_DeleteLike(t *testing.T) {
	db := newRepoDB(t, &domain.Like{})

	l, err := CreateLike(db, "u1", "u2")
	if err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	got, err := GetLike(db, "u1", "u2")
	if err != nil {
		t.Fatalf("GetLike: %v", err)
	}
	if got.ID != l.ID {
		t.Fatalf("GetLike returned %s, want %s", got.ID, l.ID)
	}

	if err := DeleteLike(db, l.ID); err != nil {
		t.Fatalf("DeleteLike: %v", err)
	}
	if _, err := GetLike(db, "u1", "u2"); err == nil {
		t.Fatalf("deleted like still readable")
	}
}

func TestDeleteLike_FreesUniquePairForRelike(t *testing.T) {
	db := newRepoDB(t, &domain.Like{})

	l, err := CreateLike(db, "u1", "u2")
	if err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if err := DeleteLike(db, l.ID); err != nil {
		t.Fatalf("DeleteLike: %v", err)
	}
	if _, err := CreateLike(db, "u1", "u2"); err != nil {
		t.Fatalf("re-like after unlike rejected: %v", err)
	}
}

func TestListLikes_Directions(t *testing.T) {
	db := newRepoDB(t, &domain.Like{})

	if _, err := CreateLike(db, "a", "target"); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if _, err := CreateLike(db, "b", "target"); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if _, err := CreateLike(db, "target", "a"); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}

	received, err := ListLikesReceived(db, "target")
	if err != nil {
		t.Fatalf("ListLikesReceived: %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("received = %d, want 2", len(received))
	}

	given, err := ListLikesGiven(db, "target")
	if err != nil {
		t.Fatalf("ListLikesGiven: %v", err)
	}
	if len(given) != 1 || given[0].LikedUserID != "a" {
		t.Fatalf("given = %+v, want one like toward `a`", given)
	}
}
