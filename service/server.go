package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"cmsgo/app/config"
	"cmsgo/app/render"
	"cmsgo/app/repositories"
	"cmsgo/app/routes"
	"cmsgo/app/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"
)

type frontend int

const (
	frontSite frontend = iota
	frontAdmin
	frontBoth
)

var frontendUse = map[frontend][2]string{
	frontSite:  {"site", "Serve the public site"},
	frontAdmin: {"admin", "Serve the admin API"},
	frontBoth:  {"serve", "Serve the public site and the admin API"},
}

func newServeCommand(opts *rootOptions, logger pslog.Logger, which frontend) *cobra.Command {
	use := frontendUse[which]
	return &cobra.Command{
		Use:   use[0],
		Short: use[1],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), cfg, logger, which)
		},
	}
}

// Server is one front-end bound to its address.
type Server struct {
	Name string
	HTTP *http.Server
}

// Build opens the store and assembles the HTTP servers for which. The
// returned closer releases the store.
func Build(ctx context.Context, cfg *config.Config, logger pslog.Logger, which frontend) ([]Server, func() error, error) {
	repo, err := repositories.Open(ctx, cfg.StoreOptions(logger.With("sys", "store")))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := routes.Deps{
		PostService:         services.NewPostService(repo, logger),
		Renderer:            render.NewFileRenderer(cfg.ViewsDir, nil),
		Navbar:              cfg.Navbar,
		SitePageSize:        cfg.SitePageSize,
		AdminNotFoundStatus: cfg.AdminNotFoundStatus,
		SiteNotFoundStatus:  cfg.SiteNotFoundStatus,
		MaxBody:             cfg.MaxBodyBytes,
		CORSOrigins:         cfg.CORSOrigins,
		Logger:              logger,
		Registry:            registry,
	}

	var servers []Server
	if which == frontSite || which == frontBoth {
		handler, err := routes.SiteHandler(deps)
		if err != nil {
			repo.Close()
			return nil, nil, err
		}
		servers = append(servers, newServer(routes.FrontendSite, cfg.WebserverPort, handler))
	}
	if which == frontAdmin || which == frontBoth {
		handler, err := routes.AdminHandler(deps)
		if err != nil {
			repo.Close()
			return nil, nil, err
		}
		servers = append(servers, newServer(routes.FrontendAdmin, cfg.AdminPort, handler))
	}
	return servers, repo.Close, nil
}

func newServer(name string, port int, handler http.Handler) Server {
	return Server{
		Name: name,
		HTTP: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg *config.Config, logger pslog.Logger, which frontend) error {
	logger.Info("config.loaded", "config", cfg.Redacted())

	servers, closeStore, err := Build(ctx, cfg, logger, which)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("store.close.failed", "error", err)
		}
	}()
	return Serve(ctx, servers, cfg.ShutdownTimeout, logger)
}

// Serve runs every server and shuts all of them down when ctx ends or one fails.
func Serve(ctx context.Context, servers []Server, shutdownTimeout time.Duration, logger pslog.Logger) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		group.Go(func() error {
			logger.Info("http.listen", "frontend", srv.Name, "addr", srv.HTTP.Addr)
			if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", srv.Name, err)
			}
			return nil
		})
	}
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			logger.Info("http.shutdown", "frontend", srv.Name)
			if err := srv.HTTP.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("%s shutdown: %w", srv.Name, err))
			}
		}
		return errors.Join(errs...)
	})
	return group.Wait()
}
