package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"

	"gorm.io/gorm"
)

const maxCategoryLength = 50

// eventTimeLayouts are tried in order; layouts without a zone are UTC.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// EntryFields carries the editable fields of a map entry as received from
// a client. Coordinates stay textual so parse failures are reported as
// invalid coordinates.
type EntryFields struct {
	Category    string
	Latitude    string
	Longitude   string
	Observation string
	Feeling     string
	Need        string
	Request     string
	Note        string
	EventAt     string
}

// EntryFilter narrows Query. Zero fields impose no constraint; set fields
// are combined with AND.
type EntryFilter struct {
	Category string
	Owner    string
	From     *time.Time
	To       *time.Time
	Term     string
}

// PointService is the map entry store.
type PointService struct{}

// ParseCoordinate parses a latitude or longitude. Only float syntax is
// checked; NaN and infinities are rejected since they have no JSON form.
func ParseCoordinate(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, common.WithField(common.ErrInvalidCoordinate, field)
	}
	return v, nil
}

// ParseEventTime parses an event timestamp truncated to the second. An
// empty string yields nil.
func ParseEventTime(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range append(eventTimeLayouts, dateLayout) {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC().Truncate(time.Second)
			return &t, nil
		}
	}
	return nil, common.WithField(common.ErrInvalidDate, field)
}

// ParseRangeEnd parses the inclusive upper bound of an event time range. A
// bare date covers the whole day.
func ParseRangeEnd(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(dateLayout, raw, time.UTC); err == nil {
		end := t.Add(24*time.Hour - time.Second)
		return &end, nil
	}
	return ParseEventTime(raw, field)
}

// canModify holds for the entry owner and for administrators.
func canModify(editor *model.User, entry *model.MapEntry) bool {
	return editor.Id == entry.UserId || editor.IsAdmin
}

func (f *EntryFields) normalize() {
	f.Category = strings.TrimSpace(f.Category)
	f.Observation = strings.TrimSpace(f.Observation)
}

// apply validates f and copies it onto entry. Coordinates are required
// when requireCoords is set and otherwise only replaced when either is
// given, in which case both must parse.
func (f *EntryFields) apply(entry *model.MapEntry, requireCoords bool) error {
	f.normalize()
	if f.Category == "" {
		return common.WithField(common.ErrMissingField, "type")
	}
	if utf8.RuneCountInString(f.Category) > maxCategoryLength {
		return common.WithField(common.ErrFieldTooLong, "type")
	}
	if f.Observation == "" {
		return common.WithField(common.ErrMissingField, "observation")
	}

	hasCoords := strings.TrimSpace(f.Latitude) != "" || strings.TrimSpace(f.Longitude) != ""
	if requireCoords || hasCoords {
		lat, err := ParseCoordinate(f.Latitude, "latitude")
		if err != nil {
			return err
		}
		lon, err := ParseCoordinate(f.Longitude, "longitude")
		if err != nil {
			return err
		}
		entry.Latitude, entry.Longitude = lat, lon
	}

	eventAt, err := ParseEventTime(f.EventAt, "event_at")
	if err != nil {
		return err
	}

	entry.Category = f.Category
	entry.Observation = f.Observation
	entry.Feeling = f.Feeling
	entry.Need = f.Need
	entry.Request = f.Request
	entry.Note = f.Note
	entry.EventAt = eventAt
	entry.RefreshSearchText()
	return nil
}

// Create stores a new entry owned by owner and returns its id.
func (s *PointService) Create(ctx context.Context, owner *model.User, fields EntryFields) (int, error) {
	entry := &model.MapEntry{UserId: owner.Id}
	if err := fields.apply(entry, true); err != nil {
		return 0, err
	}
	if err := database.GetDB().WithContext(ctx).Create(entry).Error; err != nil {
		return 0, common.StoreError(err)
	}
	logger.Debugf("user %d created entry %d", owner.Id, entry.Id)
	return entry.Id, nil
}

// loadForChange fetches an entry inside tx and checks that editor may
// change it.
func loadForChange(tx *gorm.DB, entryID int, editor *model.User) (*model.MapEntry, error) {
	entry := &model.MapEntry{}
	err := tx.First(entry, entryID).Error
	if database.IsNotFound(err) {
		return nil, common.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if !canModify(editor, entry) {
		return nil, common.ErrForbidden
	}
	return entry, nil
}

// Update replaces the editable fields of an entry. Concurrent edits are not
// reconciled; the last write wins.
func (s *PointService) Update(ctx context.Context, entryID int, editor *model.User, fields EntryFields) error {
	err := database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := loadForChange(tx, entryID, editor)
		if err != nil {
			return err
		}
		if err := fields.apply(entry, false); err != nil {
			return err
		}
		return tx.Select("category", "latitude", "longitude", "observation",
			"feeling", "need", "request", "note", "event_at", "search_text").
			Save(entry).Error
	})
	if err != nil {
		return common.StoreError(err)
	}
	logger.Debugf("user %d updated entry %d", editor.Id, entryID)
	return nil
}

// Delete removes an entry together with its comments.
func (s *PointService) Delete(ctx context.Context, entryID int, requester *model.User) error {
	err := database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := loadForChange(tx, entryID, requester)
		if err != nil {
			return err
		}
		if err := tx.Where("entry_id = ?", entry.Id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(entry).Error
	})
	if err != nil {
		return common.StoreError(err)
	}
	logger.Debugf("user %d deleted entry %d", requester.Id, entryID)
	return nil
}

// Get loads a single entry with its owner.
func (s *PointService) Get(ctx context.Context, entryID int) (*model.MapEntry, error) {
	entry := &model.MapEntry{}
	err := database.GetDB().WithContext(ctx).Preload("User").First(entry, entryID).Error
	if database.IsNotFound(err) {
		return nil, common.ErrNotFound
	} else if err != nil {
		return nil, common.StoreError(err)
	}
	return entry, nil
}

// Query returns the entries matching filter in ascending id order, with
// owners preloaded. Owner matching is a case-sensitive substring test on the
// handle; Term is a case-insensitive substring test against observation,
// request or note, folded in Go through MapEntry.SearchText. Entries without an event time never match a time range.
func (s *PointService) Query(ctx context.Context, filter EntryFilter) ([]model.MapEntry, error) {
	query := database.GetDB().WithContext(ctx).
		Model(&model.MapEntry{}).
		Preload("User")

	if filter.Category != "" {
		query = query.Where("map_entries.category = ?", filter.Category)
	}
	if filter.Owner != "" {
		query = query.
			Joins("JOIN users ON users.id = map_entries.user_id").
			Where(database.Contains("users.handle"), filter.Owner)
	}
	if filter.From != nil {
		query = query.Where("map_entries.event_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("map_entries.event_at <= ?", filter.To.UTC())
	}
	if filter.Term != "" {
		query = query.Where(database.Contains("map_entries.search_text"), model.FoldSearch(filter.Term))
	}

	entries := make([]model.MapEntry, 0)
	if err := query.Order("map_entries.id ASC").Find(&entries).Error; err != nil {
		return nil, common.StoreError(err)
	}
	return entries, nil
}
