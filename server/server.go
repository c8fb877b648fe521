package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"
	"github.com/tavernkeep/tavern/server/auth"
	"github.com/tavernkeep/tavern/server/effort"
	"github.com/tavernkeep/tavern/server/nav"
	"github.com/tavernkeep/tavern/server/notify"
	"gorm.io/gorm"
)

type Server struct {
	Log logs.Log
	DB  *gorm.DB

	cfg        *Config
	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router
	sessions   *auth.SessionServer
	twitch     *auth.TwitchClient
	effort     *effort.EffortDB
	notifier   *notify.Notifier
	menu       []nav.Section
}

func NewServer(configFile string) (*Server, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	logger, err := logs.NewLog()
	if err != nil {
		return nil, err
	}
	db, err := openDB(logger, cfg.DB)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Log:      logger,
		DB:       db,
		cfg:      cfg,
		sessions: auth.NewSessionServer(db, logger, cfg.SiteAdminLogin),
		twitch:   auth.NewTwitchClient(cfg.Twitch),
		effort:   effort.NewEffortDB(db, logger),
		notifier: notify.NewNotifier(logger, cfg.NotifyEndpoint),
		menu:     nav.DefaultMenu(),
	}
	if err := s.setupHttpRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) ListenHTTP() error {
	port := s.cfg.HTTP.Port
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: s.httpRouter,
	}
	s.Log.Infof("Listening on %v", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v', shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

func (s *Server) Shutdown() {
	signal.Stop(s.signalIn)
	close(s.signalIn)
	s.Log.Infof("Closing HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Log.Warnf("Shutdown complete, with error: %v", err)
	} else {
		s.Log.Infof("Shutdown complete")
	}
	s.Log.Close()
}
