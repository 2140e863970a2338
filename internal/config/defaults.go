package config

const (
	defaultListen         = "127.0.0.1:8710"
	defaultCORSOrigin     = "*"
	defaultDatabasePath   = "~/.local/share/shiplink/shiplink.db"
	defaultThreshold      = 0.5
	defaultDateWindowDays = 180
	defaultSoundexLength  = 4
	defaultMaxResults     = 5
	defaultPruneRatio     = 0.5
	defaultNameWeight     = 0.50
	defaultDateWeight     = 0.30
	defaultNatWeight      = 0.10
	defaultPhonWeight     = 0.10
	defaultCrewMinScore   = 0.75
	defaultCrewMaxResults = 10
	defaultNearbyRadiusKM = 200
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Listen:     defaultListen,
			CORSOrigin: defaultCORSOrigin,
		},
		Database: Database{
			Path: defaultDatabasePath,
		},
		Matching: Matching{
			Threshold:         defaultThreshold,
			DateWindowDays:    defaultDateWindowDays,
			SoundexLength:     defaultSoundexLength,
			MaxResults:        defaultMaxResults,
			PruneRatio:        defaultPruneRatio,
			NameWeight:        defaultNameWeight,
			DateWeight:        defaultDateWeight,
			NationalityWeight: defaultNatWeight,
			PhoneticWeight:    defaultPhonWeight,
		},
		Search: Search{
			CrewMinScore:   defaultCrewMinScore,
			CrewMaxResults: defaultCrewMaxResults,
			NearbyRadiusKM: defaultNearbyRadiusKM,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
