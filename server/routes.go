package server

import (
	"fmt"
	"log"
)

func (s *Server) initRoutes() {
	// Collaborator pushes (raw bodies, no JSON)
	s.RegisterRouteHandler("POST "+RouteUploadImage, ChainMiddleware(s.UploadImageHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteUploadGPS, ChainMiddleware(s.UploadGPSHandler(), s.APIMiddleware()...))

	// Verification flow
	s.RegisterRouteHandler("POST "+RouteAPILogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerificationStart, ChainMiddleware(s.VerificationStartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerifyGPS, ChainMiddleware(s.VerifyGPSHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerifyOTP, ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerifyFace, ChainMiddleware(s.VerifyFaceHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerifyFingerprint, ChainMiddleware(s.VerifyFingerprintHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerifySignature, ChainMiddleware(s.VerifySignatureHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIVerifyMail, ChainMiddleware(s.VerifyMailHandler(), s.APIMiddleware()...))

	// Hardware
	s.RegisterRouteHandler("GET "+RouteAPISensorsStatus, ChainMiddleware(s.SensorsStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIRTC, ChainMiddleware(s.RTCHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRTCSync, ChainMiddleware(s.RTCSyncHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIGPS, ChainMiddleware(s.GPSHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPICamera, ChainMiddleware(s.CameraHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIFingerprint, ChainMiddleware(s.FingerprintHandler(), s.APIMiddleware()...))
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Printf("[%-19s] %s %s\n", displayMethod, path, errorString)
}
