package server

import (
	"net/http"

	"github.com/nguyentantai21042004/announce-flow/internal/catalog"
	"github.com/nguyentantai21042004/announce-flow/internal/fanout"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/internal/webpush"
)

// recentLimit caps the /api/streams listing
const recentLimit = 20

type Options struct {
	Addr      string
	OutputDir string
	// Current returns the session being recorded, if any
	Current func() (string, bool)
	// Push enables the push routes when set
	Push  *webpush.Registry
	VAPID webpush.VAPIDKeys
}

type implServer struct {
	opts    Options
	hub     fanout.Hub
	catalog catalog.Catalog
	logger  logger.Logger
	mux     *http.ServeMux
}

// New creates a Server and registers its routes
func New(opts Options, hub fanout.Hub, cat catalog.Catalog, log logger.Logger) Server {
	if opts.Current == nil {
		opts.Current = func() (string, bool) { return "", false }
	}
	s := &implServer{
		opts:    opts,
		hub:     hub,
		catalog: cat,
		logger:  log,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}
