package config

const (
	DefaultTimeZone = "Europe/Oslo"

	// ImportChunkSize bounds one multi-row upsert statement.
	ImportChunkSize = 500

	// Pending import jobs older than this are eligible for the cron sweeper;
	// anything fresher is still owned by the upload handler's own goroutine.
	SweepGraceSeconds = 60

	DefaultSweepSchedule = "*/1 * * * *"
	SweepBatchSize       = 20
)
