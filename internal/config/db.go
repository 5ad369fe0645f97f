package config

// DB holds the database configuration settings.
type DB struct {
	Engine   string // postgres, mysql or sqlite
	Extras   string // appended to the DSN
	Host     string
	Port     int
	User     string
	Password string
	Name     string // database name, or file path for sqlite
}
