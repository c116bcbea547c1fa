package adminstats

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
)

const cacheKey = "admin_stats"

// Service computes global dashboard aggregates.
type Service interface {
	Get(ctx context.Context) (*dto.AdminStats, error)
	Invalidate()
}

type service struct {
	repo  Repository
	cache *cache.Cache
	ttl   time.Duration
}

// NewService caches results for ttl; a zero ttl disables caching.
func NewService(repo Repository, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stats repository required")
	}
	return &service{repo: repo, cache: cache.New(ttl, 2*ttl+time.Minute), ttl: ttl}, nil
}

func (s *service) Get(ctx context.Context) (*dto.AdminStats, error) {
	if s.ttl > 0 {
		if cached, ok := s.cache.Get(cacheKey); ok {
			stats := *cached.(*dto.AdminStats)
			return &stats, nil
		}
	}

	stats := &dto.AdminStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.OrdersByStatus, err = s.repo.OrdersByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RevenuePence, err = s.repo.SumAmount(gctx, enums.OrderStatusSucceeded)
		return err
	})
	g.Go(func() (err error) {
		stats.RefundedPence, err = s.repo.SumAmount(gctx, enums.OrderStatusRefunded)
		return err
	})
	g.Go(func() (err error) {
		stats.CasesByStatus, err = s.repo.CasesByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.DocumentCount, err = s.repo.CountDocuments(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OpenLegalEvents, err = s.repo.CountOpenLegalEvents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute admin stats")
	}

	if s.ttl > 0 {
		s.cache.SetDefault(cacheKey, stats)
	}
	out := *stats
	return &out, nil
}

// Invalidate drops the cached aggregates after a mutation.
func (s *service) Invalidate() {
	s.cache.Delete(cacheKey)
}
