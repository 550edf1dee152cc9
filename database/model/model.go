// Package model defines the persisted records of the map: users, map
// entries and their comments.
package model

import (
	"strings"
	"time"
)

// DefaultPhoto is served for users without a profile photo.
const DefaultPhoto = "/static/images/avatar_padrao.png"

type User struct {
	Id           int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Handle       string     `json:"handle" gorm:"size:50;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Photo        string     `json:"photo" gorm:"size:255"`
	Pronouns     string     `json:"pronouns" gorm:"size:20"`
	IsAdmin      bool       `json:"isAdmin" gorm:"not null;default:false"`
	Online       bool       `json:"online" gorm:"not null;default:false;index:idx_users_presence,priority:1"`
	LastSeen     *time.Time `json:"lastSeen" gorm:"index:idx_users_presence,priority:2"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// PhotoOrDefault returns the profile photo reference, or DefaultPhoto.
func (u *User) PhotoOrDefault() string {
	if u.Photo == "" {
		return DefaultPhoto
	}
	return u.Photo
}

// MapEntry is a geotagged submission. Observation, Feeling, Need and Request
// follow the nonviolent communication template.
type MapEntry struct {
	Id          int        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId      int        `json:"userId" gorm:"index;not null"`
	User        User       `json:"-" gorm:"foreignKey:UserId"`
	Category    string     `json:"type" gorm:"size:50;index;not null"`
	Latitude    float64    `json:"latitude" gorm:"not null"`
	Longitude   float64    `json:"longitude" gorm:"not null"`
	Observation string     `json:"observation" gorm:"type:text;not null"`
	Feeling     string     `json:"feeling" gorm:"type:text"`
	Need        string     `json:"need" gorm:"type:text"`
	Request     string     `json:"request" gorm:"type:text"`
	Note        string     `json:"note" gorm:"type:text"`
	EventAt     *time.Time `json:"eventAt" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt"`

	// SearchText is observation, request and note lower-cased in Go, so
	// term matching folds non-ASCII letters on every dialect.
	SearchText string `json:"-" gorm:"type:text;not null;default:''"`
}

// RefreshSearchText recomputes SearchText from the searchable fields.
func (e *MapEntry) RefreshSearchText() {
	e.SearchText = FoldSearch(e.Observation + "\n" + e.Request + "\n" + e.Note)
}

// FoldSearch is the case folding applied to SearchText and to search terms.
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

type Comment struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryId   int       `json:"entryId" gorm:"index;not null"`
	UserId    int       `json:"userId" gorm:"index;not null"`
	User      User      `json:"-" gorm:"foreignKey:UserId"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
}
