package config

import "time"

type SensorConfig interface {
	GetFingerprintPort() string
	GetFingerprintBaud() int
	GetFingerprintTimeout() time.Duration
	GetFingerprintWidth() int
	GetFingerprintHeight() int
	GetGPSWait() time.Duration
	GetGPSFallbackLatitude() float64
	GetGPSFallbackLongitude() float64
	GetSignatureMinPixels() int
	GetRTCBus() string
	GetRTCAddress() uint16
	GetCameraURL() string
	GetCameraTimeout() time.Duration
}

type Sensors struct{}

var _ SensorConfig = Sensors{}

func (Sensors) GetFingerprintPort() string {
	return GetEnv("FP_UART", "/dev/serial0")
}

func (Sensors) GetFingerprintBaud() int {
	return GetEnvInt("FP_UART_BAUD", 57600)
}

// GetFingerprintTimeout is how long to wait for a finger on the sensor.
func (Sensors) GetFingerprintTimeout() time.Duration {
	return GetEnvDuration("FP_CAPTURE_TIMEOUT", 15*time.Second)
}

func (Sensors) GetFingerprintWidth() int {
	return GetEnvInt("FP_IMAGE_WIDTH", 256)
}

func (Sensors) GetFingerprintHeight() int {
	return GetEnvInt("FP_IMAGE_HEIGHT", 288)
}

// GetGPSWait is how long to let an in-flight GPS upload settle before
// reading the location log.
func (Sensors) GetGPSWait() time.Duration {
	return GetEnvDuration("GPS_WAIT", 5*time.Second)
}

func (Sensors) GetGPSFallbackLatitude() float64 {
	return GetEnvFloat("GPS_FALLBACK_LAT", 37.49638)
}

func (Sensors) GetGPSFallbackLongitude() float64 {
	return GetEnvFloat("GPS_FALLBACK_LON", 126.9569)
}

// GetSignatureMinPixels is the minimum number of non-white pixels for a
// signature to be accepted.
func (Sensors) GetSignatureMinPixels() int {
	return GetEnvInt("SIGNATURE_MIN_PIXELS", 100)
}

func (Sensors) GetRTCBus() string {
	return GetEnv("RTC_I2C_BUS", "1")
}

func (Sensors) GetRTCAddress() uint16 {
	return uint16(GetEnvInt("DS3231_ADDR", 0x68))
}

func (Sensors) GetCameraURL() string {
	return GetEnv("ESP32_CAM_URL", "http://192.168.4.1")
}

func (Sensors) GetCameraTimeout() time.Duration {
	return GetEnvDuration("CAMERA_TIMEOUT", 10*time.Second)
}
