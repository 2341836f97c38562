package dto

import "time"

type IngestResult struct {
	Accepted int
	Changed  int
}

type ResyncResult struct {
	RunID    string
	Profiles int
	Duration time.Duration
}
