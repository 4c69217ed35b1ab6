package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/preferences"
	"github.com/stanstork/console-api/internal/supabase"
)

type stubFetcher struct {
	apps  []models.Application
	err   error
	calls int
	token string
}

func (s *stubFetcher) QueryApplications(ctx context.Context, accessToken string) ([]models.Application, error) {
	s.calls++
	s.token = accessToken
	return s.apps, s.err
}

func TestListing_StartsLoading(t *testing.T) {
	l := NewListing(&stubFetcher{}, "", models.LayoutList)
	v := l.View()
	assert.Equal(t, StateLoading, v.State)
	assert.Empty(t, v.Applications)
}

func TestListing_Populated(t *testing.T) {
	apps := []models.Application{{ID: "2", Name: "Zeta"}, {ID: "1", Name: "Alpha"}}
	f := &stubFetcher{apps: apps}
	l := NewListing(f, "tok", models.LayoutGrid)

	require.NoError(t, l.Load(context.Background()))
	v := l.View()
	assert.Equal(t, StatePopulated, v.State)
	// stored verbatim, no client side sorting
	assert.Equal(t, apps, v.Applications)
	assert.Equal(t, models.LayoutGrid, v.Layout)
	assert.Equal(t, "tok", f.token)
}

func TestListing_EmptyIsNotAnError(t *testing.T) {
	l := NewListing(&stubFetcher{apps: []models.Application{}}, "", models.LayoutList)

	require.NoError(t, l.Load(context.Background()))
	v := l.View()
	assert.Equal(t, StateEmpty, v.State)
	assert.Empty(t, v.Error)
}

func TestListing_ErrorWithoutMessageUsesFallback(t *testing.T) {
	l := NewListing(&stubFetcher{err: &supabase.Error{Status: 500}}, "", models.LayoutList)

	require.Error(t, l.Load(context.Background()))
	v := l.View()
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "Failed to fetch applications", v.Error)
}

func TestListing_ErrorWithMessage(t *testing.T) {
	l := NewListing(&stubFetcher{err: errors.New("permission denied for table applications")}, "", models.LayoutList)

	require.Error(t, l.Load(context.Background()))
	assert.Equal(t, "permission denied for table applications", l.View().Error)
}

func TestListing_QueriesExactlyOnce(t *testing.T) {
	f := &stubFetcher{apps: []models.Application{{ID: "1"}}}
	l := NewListing(f, "", models.LayoutList)

	require.NoError(t, l.Load(context.Background()))
	assert.ErrorIs(t, l.Load(context.Background()), ErrAlreadyLoaded)
	require.NoError(t, l.SetLayout(models.LayoutGrid))

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, StatePopulated, l.State())
	assert.Equal(t, models.LayoutGrid, l.View().Layout)
}

func TestListing_InvalidLayout(t *testing.T) {
	l := NewListing(&stubFetcher{}, "", "mosaic")
	assert.Equal(t, models.LayoutList, l.View().Layout)
	assert.ErrorIs(t, l.SetLayout("mosaic"), preferences.ErrInvalidLayout)
}
