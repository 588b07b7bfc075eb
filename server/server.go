package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Burrun/Arduino/camera"
	"github.com/Burrun/Arduino/fingerprint"
	"github.com/Burrun/Arduino/gps"
	"github.com/Burrun/Arduino/internal/config"
	"github.com/Burrun/Arduino/remote"
	"github.com/Burrun/Arduino/rtc"
	"github.com/Burrun/Arduino/signature"
	"github.com/Burrun/Arduino/verification"
)

// Devices bundles the hardware adapters the handlers drive. Every field is
// required.
type Devices struct {
	Fingerprint *fingerprint.Sensor
	GPSStore    *gps.Store
	GPS         *gps.Resolver
	Clock       *rtc.Clock
	CameraStore *camera.Store
	Camera      *camera.Client
	Signature   *signature.Validator
}

type Server struct {
	env      string // Environment (e.g., "development", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	verifier *verification.Service
	devices  Devices
}

func New(config config.Config, client remote.Client, sessions verification.SessionRepo, devices Devices) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("[Server New] remote client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] session repo is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		verifier: verification.NewService(sessions, client, config.GetSessionTimeout()),
		devices:  devices,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
