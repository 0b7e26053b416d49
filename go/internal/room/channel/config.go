package channel

import "time"

// Config holds transport settings for the room event channel.
type Config struct {
	// URL is the websocket endpoint of the room relay, e.g.
	// ws://localhost:8081/ws/room.
	URL string

	DialTimeout     time.Duration
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	MaxDialAttempts int
	// DialBackoff is the first retry delay; each further attempt waits one
	// multiple longer.
	DialBackoff time.Duration
}

// DefaultConfig returns the default channel configuration.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		DialTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		MaxDialAttempts: 5,
		DialBackoff:     500 * time.Millisecond,
	}
}
