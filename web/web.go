// Package web assembles the HTTP server: middleware, session store, API
// routes and the presence sweep schedule.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mapavioleta/mapavioleta/config"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/util/random"
	"github.com/mapavioleta/mapavioleta/web/cache"
	"github.com/mapavioleta/mapavioleta/web/controller"
	"github.com/mapavioleta/mapavioleta/web/entity"
	"github.com/mapavioleta/mapavioleta/web/job"
	"github.com/mapavioleta/mapavioleta/web/locale"
	"github.com/mapavioleta/mapavioleta/web/middleware"
	"github.com/mapavioleta/mapavioleta/web/network"
	"github.com/mapavioleta/mapavioleta/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 10 * time.Second

// Server is the map web server with its scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	api *controller.APIController

	cron *cron.Cron

	// ownsCache is set when Start opened the Redis connection itself.
	ownsCache bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// newSessionStore returns the Redis-backed store, or signed cookies when
// configured or when Redis is not available.
func (s *Server) newSessionStore() sessions.Store {
	secret := []byte(config.GetSecret())
	if len(secret) == 0 {
		logger.Warning("MAPA_SECRET is not set, sessions will not survive a restart")
		secret = []byte(random.Seq(32))
	}

	opts := sessions.Options{
		Path:     "/",
		MaxAge:   config.GetSessionMaxAge() * 60,
		HttpOnly: true,
		Secure:   config.GetCertFile() != "" && config.GetKeyFile() != "",
		SameSite: http.SameSiteLaxMode,
	}

	if config.GetSessionStore() == config.SessionStoreRedis && cache.GetClient() != nil {
		if cache.IsEmbedded() {
			logger.Info("sessions are kept in the embedded Redis and are lost on restart")
		}
		store := cache.NewRedisStore(cache.GetClient(), opts.MaxAge, secret)
		store.Options(opts)
		return store
	}
	store := cookie.NewStore(secret)
	store.Options(opts)
	return store
}

// initRouter registers middleware and controllers and returns the engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(config.GetTrustedProxies()); err != nil {
		return nil, err
	}
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(sessions.Sessions(session.CookieName, s.newSessionStore()))
	engine.Use(locale.LocalizerMiddleware())

	s.api = controller.NewAPIController(engine.Group("/"))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, entity.Msg{
			Success: false,
			Error:   locale.I18n(c, "error.notFound"),
			Code:    "notFound",
		})
	})

	return engine, nil
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	spec := config.GetPresenceSweepSpec()
	if _, err := s.cron.AddJob(spec, job.NewPresenceSweepJob()); err != nil {
		logger.Warningf("invalid presence sweep schedule %q: %v, using @every 1m", spec, err)
		if _, err := s.cron.AddJob("@every 1m", job.NewPresenceSweepJob()); err != nil {
			logger.Error("add presence sweep job failed:", err)
		}
	}
}

// Start connects Redis, builds the router and starts serving in the
// background.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if cache.GetClient() == nil {
		if err = cache.InitRedis(config.GetRedisAddr()); err != nil {
			return err
		}
		s.ownsCache = true
	}

	s.cron = cron.New(cron.WithLocation(time.UTC))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	certFile := config.GetCertFile()
	keyFile := config.GetKeyFile()
	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
			listener = network.NewAutoHttpsListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts the server down and releases the cron scheduler. Redis is
// closed only when Start opened it, so a connection shared across reloads
// keeps its sessions and counters.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		err2 = s.listener.Close()
	}
	var err3 error
	if s.ownsCache {
		err3 = cache.Close()
		s.ownsCache = false
	}
	return common.Combine(err1, err2, err3)
}

func (s *Server) GetCtx() context.Context { return s.ctx }

func (s *Server) GetCron() *cron.Cron { return s.cron }
