package config

type Config interface {
	EnvConfig
	CorsConfig
	SensorConfig
	RemoteConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Sensors
	Remote
}

func New() Config {
	return mainConfig{}
}
