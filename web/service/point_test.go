package service

import (
	"context"
	"testing"
	"time"

	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/util/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"-23.5505", -23.5505, false},
		{" 46.6333 ", 46.6333, false},
		{"0", 0, false},
		{"abc", 0, true},
		{"", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCoordinate(tt.raw, "latitude")
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEventTime(t *testing.T) {
	want := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	for _, raw := range []string{
		"2024-03-10T14:30:00Z",
		"2024-03-10T11:30:00-03:00",
		"2024-03-10T14:30:00.750Z",
		"2024-03-10T14:30:00",
		"2024-03-10T14:30",
		"2024-03-10 14:30:00",
	} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseEventTime(raw, "event_at")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, want.Equal(*got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	got, err := ParseEventTime("", "event_at")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseEventTime("yesterday", "event_at")
	assert.ErrorIs(t, err, common.ErrInvalidDate)

	end, err := ParseRangeEnd("2024-03-10", "date_to")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC), *end)

	start, err := ParseEventTime("2024-03-10", "date_from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *start)
}

func validFields() EntryFields {
	return EntryFields{
		Category:    "assedio",
		Latitude:    "-23.55",
		Longitude:   "-46.63",
		Observation: "Ouvi gritos na praça",
		Feeling:     "medo",
		Need:        "segurança",
		Request:     "mais iluminação",
		Note:        "perto do ponto de ônibus",
		EventAt:     "2024-03-10T14:30:00",
	}
}

func TestCreateEntry(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := PointService{}
	ana := mustRegister(t, "ana", "ana@example.org")

	id, err := svc.Create(ctx, ana, validFields())
	require.NoError(t, err)
	assert.NotZero(t, id)

	entry, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ana.Id, entry.UserId)
	assert.Equal(t, "ana", entry.User.Handle)
	assert.Equal(t, -23.55, entry.Latitude)
	require.NotNil(t, entry.EventAt)
	assert.True(t, time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC).Equal(*entry.EventAt))

	fields := validFields()
	fields.EventAt = ""
	id2, err := svc.Create(ctx, ana, fields)
	require.NoError(t, err)
	assert.Greater(t, id2, id)
	entry, err = svc.Get(ctx, id2)
	require.NoError(t, err)
	assert.Nil(t, entry.EventAt)

	invalid := []struct {
		name   string
		mutate func(*EntryFields)
		want   error
	}{
		{"bad latitude", func(f *EntryFields) { f.Latitude = "north" }, common.ErrInvalidCoordinate},
		{"missing longitude", func(f *EntryFields) { f.Longitude = "" }, common.ErrInvalidCoordinate},
		{"bad date", func(f *EntryFields) { f.EventAt = "10/03/2024" }, common.ErrInvalidDate},
		{"missing category", func(f *EntryFields) { f.Category = " " }, common.ErrMissingField},
		{"missing observation", func(f *EntryFields) { f.Observation = "" }, common.ErrMissingField},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)
			_, err := svc.Create(ctx, ana, f)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, database.GetDB().Model(&model.MapEntry{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestUpdateEntry(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := PointService{}
	ana := mustRegister(t, "ana", "ana@example.org")
	bia := mustRegister(t, "bia", "bia@example.org")
	admin := mustAdmin(t)

	id, err := svc.Create(ctx, ana, validFields())
	require.NoError(t, err)

	changed := validFields()
	changed.Observation = "Nova observação"
	changed.Latitude, changed.Longitude = "", ""
	changed.EventAt = ""
	require.NoError(t, svc.Update(ctx, id, ana, changed))

	entry, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Nova observação", entry.Observation)
	assert.Equal(t, -23.55, entry.Latitude)
	found, err := svc.Query(ctx, EntryFilter{Term: "NOVA OBSERVAÇÃO"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].Id)
	assert.Nil(t, entry.EventAt)
	assert.Equal(t, ana.Id, entry.UserId)

	assert.ErrorIs(t, svc.Update(ctx, id, bia, validFields()), common.ErrForbidden)
	assert.ErrorIs(t, svc.Update(ctx, 9999, ana, validFields()), common.ErrNotFound)

	moved := validFields()
	moved.Latitude, moved.Longitude = "1.5", "2.5"
	require.NoError(t, svc.Update(ctx, id, admin, moved))
	entry, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1.5, entry.Latitude)
	assert.Equal(t, 2.5, entry.Longitude)
	assert.Equal(t, ana.Id, entry.UserId)

	bad := validFields()
	bad.Latitude = "x"
	assert.ErrorIs(t, svc.Update(ctx, id, ana, bad), common.ErrInvalidCoordinate)
}

func TestDeleteEntry(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := PointService{}
	comments := CommentService{}
	ana := mustRegister(t, "ana", "ana@example.org")
	bia := mustRegister(t, "bia", "bia@example.org")
	admin := mustAdmin(t)

	id, err := svc.Create(ctx, ana, validFields())
	require.NoError(t, err)
	_, err = comments.Add(ctx, id, bia, "força!")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, id, bia), common.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, id, ana))
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id, ana), common.ErrNotFound)

	var orphaned int64
	require.NoError(t, database.GetDB().Model(&model.Comment{}).Where("entry_id = ?", id).Count(&orphaned).Error)
	assert.Zero(t, orphaned)

	other, err := svc.Create(ctx, bia, validFields())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, other, admin))
}

func TestQueryEntries(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := PointService{}
	maria := mustRegister(t, "Maria_Flor", "maria@example.org")
	joao := mustRegister(t, "joao", "joao@example.org")

	create := func(owner *model.User, category, observation, request, eventAt string) int {
		f := validFields()
		f.Category = category
		f.Observation = observation
		f.Request = request
		f.Note = ""
		f.EventAt = eventAt
		id, err := svc.Create(ctx, owner, f)
		require.NoError(t, err)
		return id
	}
	e1 := create(maria, "assedio", "Rua escura", "Poste novo", "2024-03-01T10:00:00")
	e2 := create(joao, "acolhimento", "Roda de conversa", "", "2024-03-10T20:00:00")
	e3 := create(maria, "acolhimento", "Praça ILUMINADA", "", "")
	e4 := create(joao, "assedio", "Ponto de ônibus", "Mais ILUMINAÇÃO", "2024-03-11T00:00:00")

	day := func(s string) *time.Time {
		t2, err := ParseEventTime(s, "date")
		require.NoError(t, err)
		return t2
	}
	endOf := func(s string) *time.Time {
		t2, err := ParseRangeEnd(s, "date_to")
		require.NoError(t, err)
		return t2
	}

	tests := []struct {
		name   string
		filter EntryFilter
		want   []int
	}{
		{"all", EntryFilter{}, []int{e1, e2, e3, e4}},
		{"category", EntryFilter{Category: "assedio"}, []int{e1, e4}},
		{"unknown category", EntryFilter{Category: "nada"}, []int{}},
		{"owner substring", EntryFilter{Owner: "Flor"}, []int{e1, e3}},
		{"owner is case sensitive", EntryFilter{Owner: "flor"}, []int{}},
		{"term folds case", EntryFilter{Term: "ilumina"}, []int{e3, e4}},
		{"term matches request", EntryFilter{Term: "poste"}, []int{e1}},
		{"term upper-case accented", EntryFilter{Term: "ILUMINAÇÃO"}, []int{e4}},
		{"term lower-case accented", EntryFilter{Term: "iluminação"}, []int{e4}},
		{"term accented suffix", EntryFilter{Term: "ÇÃO"}, []int{e4}},
		{"term folds stored accents", EntryFilter{Term: "praça"}, []int{e3}},
		{"from", EntryFilter{From: day("2024-03-10")}, []int{e2, e4}},
		{"to whole day", EntryFilter{To: endOf("2024-03-10")}, []int{e1, e2}},
		{"range", EntryFilter{From: day("2024-03-05"), To: endOf("2024-03-10")}, []int{e2}},
		{"combined", EntryFilter{Category: "assedio", Owner: "joao", Term: "ônibus"}, []int{e4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			require.NotNil(t, entries)
			ids := make([]int, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.Id)
				assert.NotEmpty(t, e.User.Handle)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
