// ABOUTME: Tests for the location repository
// ABOUTME: Mocks the resolver and runs against a real SQLite store

package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/geolocation/internal/metrics"
	"github.com/harper/geolocation/internal/mls"
	"github.com/harper/geolocation/internal/models"
	"github.com/harper/geolocation/internal/share"
	"github.com/harper/geolocation/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, req *models.LocationRequest) (*mls.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*mls.Response)
	return resp, args.Error(1)
}

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	storage.LocationStore
	err error
}

func (f *failingStore) GetAll() ([]*models.LocationRecord, error) { return nil, f.err }
func (f *failingStore) GetByID(int64) (*models.LocationRecord, error) { return nil, f.err }
func (f *failingStore) Insert(*models.LocationRecord) (int64, error) { return 0, f.err }
func (f *failingStore) DeleteAll() error { return f.err }
func (f *failingStore) DeleteByID(int64) error { return f.err }

func response(lat, lng, accuracy float64) *mls.Response {
	return &mls.Response{
		Location: &mls.LatLng{Lat: &lat, Lng: &lng},
		Accuracy: &accuracy,
	}
}

func testStore(t *testing.T) *storage.SQLiteDB {
	t.Helper()
	db, err := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRepo(t *testing.T, store storage.LocationStore, resolver mls.Resolver, opts ...Option) *LocationRepository {
	t.Helper()
	repo := New(store, resolver, share.NewCacheSharer(t.TempDir(), ""), opts...)
	t.Cleanup(repo.Close)
	return repo
}

func cellRequest() *models.LocationRequest {
	return &models.LocationRequest{
		CellTowers: []models.CellTower{{RadioType: "gsm", MobileCountryCode: 232, MobileNetworkCode: 1, LocationAreaCode: 1010, CellID: 2222}},
	}
}

func storeCount(t *testing.T, store storage.LocationStore) int {
	t.Helper()
	records, err := store.GetAll()
	require.NoError(t, err)
	return len(records)
}

func TestNewLocation_StoresResolvedAndReported(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	req := cellRequest()
	resolver.On("Resolve", mock.Anything, req).Return(response(48.2, 16.3, 10), nil).Once()

	repo := newTestRepo(t, store, resolver)
	captured := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return captured }

	reported := &models.Position{Longitude: 16.31, Latitude: 48.19, Accuracy: 5}
	id, err := repo.NewLocation(context.Background(), req, reported)
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, err := repo.GetLocation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, models.Position{Longitude: 16.3, Latitude: 48.2, Accuracy: 10}, rec.Resolved)
	assert.Equal(t, *reported, rec.Reported)
	assert.True(t, rec.CaptureTime.Equal(captured), "capture time %v", rec.CaptureTime)
	assert.Equal(t, req.CellTowers, rec.Params.CellTowers)

	resolver.AssertExpectations(t)
}

func TestNewLocation_ExternalFailures(t *testing.T) {
	lat, lng, acc := 48.2, 16.3, 10.0
	tests := []struct {
		name  string
		resp  *mls.Response
		err   error
		cause error
	}{
		{"transport_error", nil, errors.New("connection refused"), nil},
		{"bad_status", nil, &mls.StatusError{Code: 500}, mls.ErrStatus},
		{"empty_body", nil, mls.ErrEmptyBody, mls.ErrEmptyBody},
		{"nil_response", nil, nil, mls.ErrEmptyBody},
		{"missing_location", &mls.Response{Accuracy: &acc}, nil, mls.ErrIncompleteResponse},
		{"missing_lat", &mls.Response{Location: &mls.LatLng{Lng: &lng}, Accuracy: &acc}, nil, mls.ErrIncompleteResponse},
		{"missing_accuracy", &mls.Response{Location: &mls.LatLng{Lat: &lat, Lng: &lng}}, nil, mls.ErrIncompleteResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			resolver := new(mockResolver)
			resolver.On("Resolve", mock.Anything, mock.Anything).Return(tt.resp, tt.err).Once()
			repo := newTestRepo(t, store, resolver)

			_, err := repo.NewLocation(context.Background(), cellRequest(), &models.Position{Latitude: 1, Longitude: 1, Accuracy: 1})
			require.ErrorIs(t, err, ErrExternalCallFailed)
			assert.Equal(t, "MLS query failed", ErrExternalCallFailed.Error())
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.Equal(t, 0, storeCount(t, store))
			resolver.AssertExpectations(t)
		})
	}
}

func TestNewLocation_MissingReportedPositionStillCallsAPI(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(response(48.2, 16.3, 10), nil).Once()
	m := metrics.New()
	repo := newTestRepo(t, store, resolver, WithMetrics(m))

	_, err := repo.NewLocation(context.Background(), cellRequest(), nil)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.EqualError(t, err, "GPS failed")

	resolver.AssertNumberOfCalls(t, "Resolve", 1)
	assert.Equal(t, 0, storeCount(t, store))
}

func TestNewLocation_ExternalFailureWinsOverMissingGPS(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()
	repo := newTestRepo(t, store, resolver)

	_, err := repo.NewLocation(context.Background(), cellRequest(), nil)
	assert.ErrorIs(t, err, ErrExternalCallFailed)
	assert.NotErrorIs(t, err, ErrMissingInput)
}

func TestNewLocation_EmbeddedErrorStillResolves(t *testing.T) {
	store := testStore(t)
	resp := response(48.2, 16.3, 10)
	resp.Error = &mls.APIError{Code: 400, Message: "Parse Error"}

	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(resp, nil).Once()
	m := metrics.New()
	repo := newTestRepo(t, store, resolver, WithMetrics(m))

	id, err := repo.NewLocation(context.Background(), cellRequest(), &models.Position{Latitude: 48.19, Longitude: 16.31, Accuracy: 5})
	require.NoError(t, err)

	rec, err := repo.GetLocation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 48.2, rec.Resolved.Latitude)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var sawAPIError bool
	for _, f := range families {
		if f.GetName() == "geolocation_api_embedded_errors_total" {
			sawAPIError = true
		}
	}
	assert.True(t, sawAPIError, "expected embedded error to be counted")
}

func TestNewLocation_EmbeddedErrorWithoutPositionFails(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).
		Return(&mls.Response{Error: &mls.APIError{Code: 404, Message: "Not found"}}, nil).Once()
	repo := newTestRepo(t, store, resolver)

	_, err := repo.NewLocation(context.Background(), cellRequest(), &models.Position{})
	require.ErrorIs(t, err, ErrExternalCallFailed)
	assert.ErrorIs(t, err, mls.ErrIncompleteResponse)
	assert.Equal(t, 0, storeCount(t, store))
}

func TestNewLocation_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(response(1, 2, 3), nil).Once()
	repo := newTestRepo(t, &failingStore{err: storeErr}, resolver)

	_, err := repo.NewLocation(context.Background(), cellRequest(), &models.Position{})
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, storeErr)
}

func TestNewLocation_NilRequest(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, (*models.LocationRequest)(nil)).Return(response(1, 2, 3), nil).Once()
	repo := newTestRepo(t, store, resolver)

	id, err := repo.NewLocation(context.Background(), nil, &models.Position{Latitude: 1, Longitude: 2, Accuracy: 3})
	require.NoError(t, err)

	rec, err := repo.GetLocation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Params.SignalCount())
}

func TestNewLocation_CallerCancellationDoesNotAbortCall(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	release := make(chan struct{})
	callCtx := make(chan context.Context, 1)
	resolver.On("Resolve", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			callCtx <- args.Get(0).(context.Context)
			<-release
		}).
		Return(response(1, 2, 3), nil).Once()
	repo := newTestRepo(t, store, resolver)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := repo.NewLocation(ctx, cellRequest(), &models.Position{Latitude: 1, Longitude: 2, Accuracy: 3})
		errCh <- err
	}()

	resolveCtx := <-callCtx
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.NoError(t, resolveCtx.Err(), "resolver context must not be cancelled by the caller")

	close(release)
	// The abandoned work still completes and persists its record.
	require.Eventually(t, func() bool { return storeCount(t, store) == 1 }, time.Second, 10*time.Millisecond)
}

func TestGetLocation_NotFound(t *testing.T) {
	repo := newTestRepo(t, testStore(t), new(mockResolver))

	_, err := repo.GetLocation(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLocation_StoreFailure(t *testing.T) {
	repo := newTestRepo(t, &failingStore{err: errors.New("io")}, new(mockResolver))

	_, err := repo.GetLocation(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestListLocations(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(response(48.2, 16.3, 10), nil)
	repo := newTestRepo(t, store, resolver)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := repo.NewLocation(context.Background(), cellRequest(), &models.Position{Latitude: 48, Longitude: 16, Accuracy: 5})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := repo.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, ids[i], rec.ID)
	}
}

func TestListLocations_StoreFailure(t *testing.T) {
	repo := newTestRepo(t, &failingStore{err: errors.New("io")}, new(mockResolver))

	_, err := repo.ListLocations(context.Background())
	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestDeleteAllLocations(t *testing.T) {
	store := testStore(t)
	for i := 0; i < 3; i++ {
		_, err := store.Insert(models.NewLocationRecord(models.Position{}, models.Position{}, models.LocationRequest{}))
		require.NoError(t, err)
	}
	repo := newTestRepo(t, store, new(mockResolver))

	require.NoError(t, repo.DeleteAllLocations(context.Background()))

	records, err := repo.ListLocations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteLocation_RemovesOnlyThatRecord(t *testing.T) {
	store := testStore(t)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := store.Insert(models.NewLocationRecord(models.Position{Latitude: float64(i)}, models.Position{}, models.LocationRequest{}))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	repo := newTestRepo(t, store, new(mockResolver))

	require.NoError(t, repo.DeleteLocation(context.Background(), ids[1]))

	_, err := repo.GetLocation(context.Background(), ids[1])
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := repo.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ids[0], records[0].ID)
	assert.Equal(t, ids[2], records[1].ID)
}

func TestDeleteLocation_MissingIsNoop(t *testing.T) {
	repo := newTestRepo(t, testStore(t), new(mockResolver))
	assert.NoError(t, repo.DeleteLocation(context.Background(), 999))
}

func TestDelete_StoreFailure(t *testing.T) {
	repo := newTestRepo(t, &failingStore{err: errors.New("locked")}, new(mockResolver))
	assert.ErrorIs(t, repo.DeleteLocation(context.Background(), 1), ErrStoreFailure)
	assert.ErrorIs(t, repo.DeleteAllLocations(context.Background()), ErrStoreFailure)
}

func TestExportLocationAsText_FixedName(t *testing.T) {
	cacheDir := t.TempDir()
	repo := New(testStore(t), new(mockResolver), share.NewCacheSharer(cacheDir, ""))
	t.Cleanup(repo.Close)

	first, err := repo.ExportLocationAsText(context.Background(), "first")
	require.NoError(t, err)
	second, err := repo.ExportLocationAsText(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cacheDir, ExportFileName), second.Path)
	assert.Equal(t, first.Path, second.Path)

	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestExportLocationAsText_UniqueNames(t *testing.T) {
	cacheDir := t.TempDir()
	repo := New(testStore(t), new(mockResolver), share.NewCacheSharer(cacheDir, ""), WithUniqueExportNames(true))
	t.Cleanup(repo.Close)

	first, err := repo.ExportLocationAsText(context.Background(), "first")
	require.NoError(t, err)
	second, err := repo.ExportLocationAsText(context.Background(), "second")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.True(t, strings.HasPrefix(filepath.Base(first.Path), "location-"))

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

// blockingSharer holds every Share call until release is closed.
type blockingSharer struct {
	started chan context.Context
	release chan struct{}
	shared  chan string
}

func (b *blockingSharer) Share(ctx context.Context, name string, data []byte) (share.Handle, error) {
	b.started <- ctx
	<-b.release
	b.shared <- string(data)
	return share.Handle{URI: "s3://bucket/" + name}, nil
}

func TestExportLocationAsText_RunsOnPoolAndSurvivesCancellation(t *testing.T) {
	sharer := &blockingSharer{
		started: make(chan context.Context, 1),
		release: make(chan struct{}),
		shared:  make(chan string, 1),
	}
	repo := New(testStore(t), new(mockResolver), sharer)
	t.Cleanup(repo.Close)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := repo.ExportLocationAsText(ctx, "payload")
		errCh <- err
	}()

	shareCtx := <-sharer.started
	// The single worker is busy with the upload, so other work waits behind it.
	listCtx, listCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer listCancel()
	_, err := repo.ListLocations(listCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.NoError(t, shareCtx.Err(), "share context must not be cancelled by the caller")

	close(sharer.release)
	select {
	case data := <-sharer.shared:
		assert.Equal(t, "payload", data)
	case <-time.After(time.Second):
		t.Fatal("abandoned export did not complete")
	}
}

func TestExportLocationAsText_NoSharer(t *testing.T) {
	repo := New(testStore(t), new(mockResolver), nil)
	t.Cleanup(repo.Close)

	_, err := repo.ExportLocationAsText(context.Background(), "x")
	assert.Error(t, err)
}

func TestMetrics_ResolvedOutcome(t *testing.T) {
	store := testStore(t)
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(response(1, 2, 3), nil).Once()
	m := metrics.New()
	repo := newTestRepo(t, store, resolver, WithMetrics(m))

	_, err := repo.NewLocation(context.Background(), cellRequest(), &models.Position{})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "geolocation_records_stored_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
