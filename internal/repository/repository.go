// ABOUTME: Location repository that resolves radio signatures and persists the resulting fixes
// ABOUTME: Runs store and network work on a background pool and exposes CRUD accessors

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/harper/geolocation/internal/dispatch"
	"github.com/harper/geolocation/internal/metrics"
	"github.com/harper/geolocation/internal/mls"
	"github.com/harper/geolocation/internal/models"
	"github.com/harper/geolocation/internal/share"
	"github.com/harper/geolocation/internal/storage"
	"github.com/rs/zerolog"
)

// ExportFileName is the fixed name of the plaintext export.
const ExportFileName = "location.txt"

// LocationRepository resolves location requests and owns the local record store.
type LocationRepository struct {
	store    storage.LocationStore
	resolver mls.Resolver
	sharer   share.Sharer
	pool     *dispatch.Pool
	ownsPool bool
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	uniqueExports bool
	now           func() time.Time
}

// Option configures a LocationRepository.
type Option func(*LocationRepository)

// WithPool runs work on a shared pool instead of a private single-worker pool.
func WithPool(p *dispatch.Pool) Option {
	return func(r *LocationRepository) {
		r.pool = p
		r.ownsPool = false
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *LocationRepository) {
		r.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *LocationRepository) {
		r.metrics = m
	}
}

// WithUniqueExportNames gives every export its own file instead of overwriting ExportFileName.
func WithUniqueExportNames(unique bool) Option {
	return func(r *LocationRepository) {
		r.uniqueExports = unique
	}
}

// New creates a repository. sharer may be nil if exports are not needed.
func New(store storage.LocationStore, resolver mls.Resolver, sharer share.Sharer, opts ...Option) *LocationRepository {
	r := &LocationRepository{
		store:    store,
		resolver: resolver,
		sharer:   sharer,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = dispatch.NewPool(1)
		r.ownsPool = true
	}
	return r
}

// Close stops the private pool. The store is owned by the caller.
func (r *LocationRepository) Close() {
	if r.ownsPool {
		r.pool.Shutdown()
	}
}

// ListLocations returns every stored record in store order.
func (r *LocationRepository) ListLocations(ctx context.Context) ([]*models.LocationRecord, error) {
	return dispatch.Do(ctx, r.pool, func() ([]*models.LocationRecord, error) {
		records, err := r.store.GetAll()
		if err != nil {
			return nil, wrap(ErrStoreFailure, err)
		}
		return records, nil
	})
}

// GetLocation returns the record with id, or ErrNotFound.
func (r *LocationRepository) GetLocation(ctx context.Context, id int64) (*models.LocationRecord, error) {
	return dispatch.Do(ctx, r.pool, func() (*models.LocationRecord, error) {
		rec, err := r.store.GetByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		if err != nil {
			return nil, wrap(ErrStoreFailure, err)
		}
		return rec, nil
	})
}

// NewLocation resolves req, then stores it together with the reported position.
// The resolution call is made before reported is checked, so a nil reported
// position still costs one API request. Nothing is stored unless both are present.
func (r *LocationRepository) NewLocation(ctx context.Context, req *models.LocationRequest, reported *models.Position) (int64, error) {
	return dispatch.Do(ctx, r.pool, func() (int64, error) {
		// The call is not aborted when the caller stops waiting.
		resolved, err := r.resolve(context.WithoutCancel(ctx), req)
		if err != nil {
			return 0, err
		}

		if reported == nil {
			r.metrics.ObserveResolution(metrics.OutcomeMissingGPS)
			r.logger.Warn().Msg("no reported position, discarding resolved location")
			return 0, ErrMissingInput
		}

		params := models.LocationRequest{}
		if req != nil {
			params = *req
		}
		rec := models.NewLocationRecord(resolved, *reported, params)
		rec.CaptureTime = r.now()

		id, err := r.store.Insert(rec)
		if err != nil {
			r.metrics.ObserveResolution(metrics.OutcomeStoreFailed)
			return 0, wrap(ErrStoreFailure, err)
		}

		r.metrics.ObserveResolution(metrics.OutcomeResolved)
		r.metrics.RecordStored()
		r.logger.Info().
			Int64("location_id", id).
			Float64("lat", resolved.Latitude).
			Float64("lng", resolved.Longitude).
			Float64("accuracy", resolved.Accuracy).
			Msg("stored location")
		return id, nil
	})
}

// resolve calls the resolver and maps its response into a Position.
func (r *LocationRepository) resolve(ctx context.Context, req *models.LocationRequest) (models.Position, error) {
	started := time.Now()
	resp, err := r.resolver.Resolve(ctx, req)
	r.metrics.ObserveLatency(time.Since(started))
	if err != nil {
		r.metrics.ObserveResolution(metrics.OutcomeFailed)
		r.logger.Error().Err(err).Int("signals", req.SignalCount()).Msg("geolocate call failed")
		return models.Position{}, wrap(ErrExternalCallFailed, err)
	}
	if resp == nil {
		r.metrics.ObserveResolution(metrics.OutcomeFailed)
		return models.Position{}, wrap(ErrExternalCallFailed, mls.ErrEmptyBody)
	}

	if resp.Error != nil {
		r.metrics.ObserveAPIError(strconv.Itoa(resp.Error.Code))
		r.logger.Warn().
			Int("code", resp.Error.Code).
			Str("message", resp.Error.Message).
			Msg("geolocate response carried an error")
	}

	pos, err := resp.Position()
	if err != nil {
		r.metrics.ObserveResolution(metrics.OutcomeIncomplete)
		r.logger.Error().Err(err).Msg("geolocate response unusable")
		return models.Position{}, wrap(ErrExternalCallFailed, err)
	}
	return pos, nil
}

// DeleteAllLocations removes every record.
func (r *LocationRepository) DeleteAllLocations(ctx context.Context) error {
	return dispatch.Run(ctx, r.pool, func() error {
		if err := r.store.DeleteAll(); err != nil {
			return wrap(ErrStoreFailure, err)
		}
		r.metrics.RecordDeleted()
		r.logger.Info().Msg("deleted all locations")
		return nil
	})
}

// DeleteLocation removes the record with id. Unknown ids are not an error.
func (r *LocationRepository) DeleteLocation(ctx context.Context, id int64) error {
	return dispatch.Run(ctx, r.pool, func() error {
		if err := r.store.DeleteByID(id); err != nil {
			return wrap(ErrStoreFailure, err)
		}
		r.metrics.RecordDeleted()
		r.logger.Debug().Int64("location_id", id).Msg("deleted location")
		return nil
	})
}

// ExportLocationAsText writes text to the export file and returns a handle for sharing it.
// With fixed naming, concurrent exports overwrite each other. The write runs on
// the pool and is not aborted when the caller stops waiting.
func (r *LocationRepository) ExportLocationAsText(ctx context.Context, text string) (share.Handle, error) {
	if r.sharer == nil {
		return share.Handle{}, errors.New("no sharer configured")
	}

	name := ExportFileName
	if r.uniqueExports {
		name = "location-" + uuid.NewString() + ".txt"
	}

	return dispatch.Do(ctx, r.pool, func() (share.Handle, error) {
		h, err := r.sharer.Share(context.WithoutCancel(ctx), name, []byte(text))
		if err != nil {
			return share.Handle{}, fmt.Errorf("export location: %w", err)
		}
		r.logger.Debug().Str("uri", h.URI).Msg("exported location text")
		return h, nil
	})
}
