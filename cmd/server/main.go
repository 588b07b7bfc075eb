package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/Burrun/Arduino/camera"
	"github.com/Burrun/Arduino/fingerprint"
	"github.com/Burrun/Arduino/gps"
	"github.com/Burrun/Arduino/internal/config"
	"github.com/Burrun/Arduino/remote"
	"github.com/Burrun/Arduino/rtc"
	"github.com/Burrun/Arduino/server"
	"github.com/Burrun/Arduino/signature"
	"github.com/Burrun/Arduino/verification"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	kiosk, err := server.New(c, newRemoteClient(c), verification.NewInMemorySessionRepo(), newDevices(c))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: kiosk}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// newRemoteClient selects the real authorization service when one is
// configured, otherwise the accept-everything offline mode.
func newRemoteClient(c config.Config) remote.Client {
	if url := c.GetRemoteURL(); url != "" {
		log.Printf("Verification proxied to %s\n", url)
		return remote.NewHTTPClient(url)
	}
	log.Printf("AUTHBOX_URL not set - offline mode, evidence is accepted without verification\n")
	return remote.NewOfflineClient(c.GetAdminID(), c.GetAdminPasswordHash())
}

func newDevices(c config.Config) server.Devices {
	gpsStore := gps.NewStore(c.GetDataFolder())
	cameraStore := camera.NewStore(c.GetDataFolder())
	return server.Devices{
		Fingerprint: fingerprint.New(c.GetFingerprintPort(), c.GetFingerprintBaud(),
			fingerprint.WithImageSize(c.GetFingerprintWidth(), c.GetFingerprintHeight())),
		GPSStore:    gpsStore,
		GPS:         gps.NewResolver(gpsStore, c.GetGPSWait(), c.GetGPSFallbackLatitude(), c.GetGPSFallbackLongitude()),
		Clock:       rtc.New(c.GetRTCBus(), c.GetRTCAddress()),
		CameraStore: cameraStore,
		Camera:      camera.NewClient(c.GetCameraURL(), cameraStore),
		Signature:   signature.NewValidator(c.GetSignatureMinPixels()),
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
