package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/refdata"
	"github.com/visavoyage/visavoyage/pkg/storage"
	"github.com/visavoyage/visavoyage/pkg/travel"
)

const (
	catalogKey      = "countries"
	shutdownTimeout = 5 * time.Second
)

// Store is the read side of the local record store.
type Store interface {
	GetUserProfile(ctx context.Context) (travel.UserProfile, bool, error)
	GetStays(ctx context.Context) ([]travel.Stay, error)
	GetRuleCache(ctx context.Context) (travel.RuleCache, error)
	GetStats(ctx context.Context) (storage.Stats, error)
}

// Server is a read-only JSON view of the local data.
type Server struct {
	DB     Store
	Source refdata.Source

	// catalog holds the sorted countries list for catalogTTL so edits to the
	// reference data show up without a restart.
	catalog *cache.Cache
}

func New(db Store, src refdata.Source, catalogTTL time.Duration) *Server {
	return &Server{
		DB:      db,
		Source:  src,
		catalog: cache.New(catalogTTL, 2*catalogTTL),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("GET /api/stays", s.handleStays)
	mux.HandleFunc("GET /api/countries", s.handleCountries)
	return mux
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Log.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		utils.Log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) countries(ctx context.Context) ([]travel.Country, error) {
	if v, ok := s.catalog.Get(catalogKey); ok {
		return v.([]travel.Country), nil
	}
	countries, err := s.Source.Countries(ctx)
	if err != nil {
		return nil, err
	}
	refdata.SortCountries(countries)
	s.catalog.SetDefault(catalogKey, countries)
	return countries, nil
}
