package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:agro.db?_pragma=busy_timeout(5000)"
	//   "agro.db"
	//   ":memory:"
	DSN string
}
