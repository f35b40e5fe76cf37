package config

// Constants defining default values for application configuration
const (
	DefaultDBPath = "./records.db"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultSourcePages = 5  // Feed URLs fetched per ingestion run
	DefaultInterval    = 15 // Minutes between ingestion runs
	DefaultRecentLimit = 20 // Records returned/considered by default

	DefaultLogLevel = "debug"
)
