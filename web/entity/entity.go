// Package entity defines the request forms and flat response records of the
// JSON API.
package entity

import (
	"time"

	"github.com/mapavioleta/mapavioleta/database/model"
)

// Msg is the response envelope of every API call.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

type RegisterForm struct {
	Handle          string `json:"handle" form:"handle"`
	Email           string `json:"email" form:"email"`
	Pronouns        string `json:"pronouns" form:"pronouns"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// PointForm drives POST /api/points. Action selects create, edit or
// delete; EntryId is ignored on create.
type PointForm struct {
	Action      string `json:"action" form:"action"`
	EntryId     string `json:"entry_id" form:"entry_id"`
	Type        string `json:"type" form:"type"`
	Latitude    string `json:"latitude" form:"latitude"`
	Longitude   string `json:"longitude" form:"longitude"`
	Observation string `json:"observation" form:"observation"`
	Feeling     string `json:"feeling" form:"feeling"`
	Need        string `json:"need" form:"need"`
	Request     string `json:"request" form:"request"`
	Note        string `json:"note" form:"note"`
	EventAt     string `json:"event_at" form:"event_at"`
}

type PointQuery struct {
	Type     string `form:"type"`
	Owner    string `form:"owner"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Term     string `form:"term"`
}

type CommentForm struct {
	EntryId string `json:"entry_id" form:"entry_id"`
	Text    string `json:"text" form:"text"`
}

type EntryRecord struct {
	Id          int        `json:"id"`
	Type        string     `json:"type"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Observation string     `json:"observation"`
	Feeling     string     `json:"feeling"`
	Need        string     `json:"need"`
	Request     string     `json:"request"`
	Note        string     `json:"note"`
	EventAt     *time.Time `json:"event_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UserId      int        `json:"user_id"`
	Handle      string     `json:"handle"`
	Photo       string     `json:"photo"`
	Pronouns    string     `json:"pronouns"`
	Elapsed     string     `json:"elapsed"`
}

type CommentRecord struct {
	Id        int       `json:"id"`
	EntryId   int       `json:"entry_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UserId    int       `json:"user_id"`
	Handle    string    `json:"handle"`
	Photo     string    `json:"photo"`
	Pronouns  string    `json:"pronouns"`
	Elapsed   string    `json:"elapsed"`
}

type OnlineUserRecord struct {
	Id       int        `json:"id"`
	Handle   string     `json:"handle"`
	Photo    string     `json:"photo"`
	Pronouns string     `json:"pronouns"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen"`
}

// ProfileRecord describes the calling user.
type ProfileRecord struct {
	Id        int        `json:"id"`
	Handle    string     `json:"handle"`
	Email     string     `json:"email"`
	Photo     string     `json:"photo"`
	Pronouns  string     `json:"pronouns"`
	IsAdmin   bool       `json:"is_admin"`
	Online    bool       `json:"online"`
	LastSeen  *time.Time `json:"last_seen"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewEntryRecord flattens an entry with its preloaded owner.
func NewEntryRecord(e *model.MapEntry, elapsed string) EntryRecord {
	return EntryRecord{
		Id:          e.Id,
		Type:        e.Category,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Observation: e.Observation,
		Feeling:     e.Feeling,
		Need:        e.Need,
		Request:     e.Request,
		Note:        e.Note,
		EventAt:     e.EventAt,
		CreatedAt:   e.CreatedAt,
		UserId:      e.UserId,
		Handle:      e.User.Handle,
		Photo:       e.User.PhotoOrDefault(),
		Pronouns:    e.User.Pronouns,
		Elapsed:     elapsed,
	}
}

func NewCommentRecord(c *model.Comment, elapsed string) CommentRecord {
	return CommentRecord{
		Id:        c.Id,
		EntryId:   c.EntryId,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		UserId:    c.UserId,
		Handle:    c.User.Handle,
		Photo:     c.User.PhotoOrDefault(),
		Pronouns:  c.User.Pronouns,
		Elapsed:   elapsed,
	}
}

func NewOnlineUserRecord(u *model.User) OnlineUserRecord {
	return OnlineUserRecord{
		Id:       u.Id,
		Handle:   u.Handle,
		Photo:    u.PhotoOrDefault(),
		Pronouns: u.Pronouns,
		Online:   u.Online,
		LastSeen: u.LastSeen,
	}
}

func NewProfileRecord(u *model.User) ProfileRecord {
	return ProfileRecord{
		Id:        u.Id,
		Handle:    u.Handle,
		Email:     u.Email,
		Photo:     u.PhotoOrDefault(),
		Pronouns:  u.Pronouns,
		IsAdmin:   u.IsAdmin,
		Online:    u.Online,
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}
