// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Like model.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateLike inserts a like row for the (liker, liked) pair. The unique pair
// index rejects duplicates at the database level.
func CreateLike(db *gorm.DB, likerID, likedUserID string) (*domain.Like, error) {
	l := &domain.Like{
		ID:          uuid.NewString(),
		LikerID:     likerID,
		LikedUserID: likedUserID,
		CreatedAt:   time.Now().UTC(),
	}
	return l, db.Create(l).Error
}

// GetLike fetches the like row for the (liker, liked) pair.
func GetLike(db *gorm.DB, likerID, likedUserID string) (*domain.Like, error) {
	var l domain.Like
	err := db.Where("liker_id = ? AND liked_user_id = ?", likerID, likedUserID).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLike removes the like row. Likes have no soft-delete column: the
// unique (liker, liked) slot must free up so the user can re-like later.
func DeleteLike(db *gorm.DB, id string) error {
	return db.Delete(&domain.Like{}, "id = ?", id).Error
}

// ListLikesReceived returns likes aimed at userID, newest first.
func ListLikesReceived(db *gorm.DB, userID string) ([]domain.Like, error) {
	var out []domain.Like
	err := db.Where("liked_user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListLikesGiven returns likes made by userID, newest first.
func ListLikesGiven(db *gorm.DB, userID string) ([]domain.Like, error) {
	var out []domain.Like
	err := db.Where("liker_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}
