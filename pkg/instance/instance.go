package instance

import "os"

// GetID returns the process instance identifier. MACA_INSTANCE_ID wins over the
// platform-provided DYNO; fallback is used when neither is set.
func GetID(fallback string) string {
	for _, key := range []string{"MACA_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return fallback
}
