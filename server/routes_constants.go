package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Collaborator push routes (ESP32-CAM module)
	RouteUploadImage = "/upload_image"
	RouteUploadGPS   = "/upload_gps"

	// Verification flow routes
	RouteAPILogin             = "/api/user/login"
	RouteAPIVerificationStart = "/api/verification/start"
	RouteAPIVerifyGPS         = "/api/verification/{logId}/gps"
	RouteAPIVerifyOTP         = "/api/verification/{logId}/otp"
	RouteAPIVerifyFace        = "/api/verification/{logId}/face"
	RouteAPIVerifyFingerprint = "/api/verification/{logId}/fingerprint"
	RouteAPIVerifySignature   = "/api/verification/{logId}/signature"
	RouteAPIVerifyMail        = "/api/verification/{logId}/mail"

	// Hardware routes
	RouteAPISensorsStatus = "/api/sensors/status"
	RouteAPIRTC           = "/api/rtc"
	RouteAPIRTCSync       = "/api/rtc/sync"
	RouteAPIGPS           = "/api/gps"
	RouteAPICamera        = "/api/camera"
	RouteAPIFingerprint   = "/api/fingerprint"
)
