package redis

import (
	"fmt"

	"github.com/mcoot/competition-console/internal/model"
)

// Key prefix for all console data
const keyPrefix = "compconsole"

// competitorKey returns the Redis key for a Competitor
func competitorKey(id model.CompetitorID) string {
	return fmt.Sprintf("%s:competitor:%s", keyPrefix, id)
}

// competitorsIndexKey returns the Redis key for the SET of competitor ids
func competitorsIndexKey() string {
	return fmt.Sprintf("%s:idx:competitors", keyPrefix)
}

// sessionKey returns the Redis key for the Session at a composite key
func sessionKey(key model.SessionKey) string {
	return fmt.Sprintf("%s:session:%s:%d:%s", keyPrefix, key.CompetitorID, key.Day, key.Module)
}

// sessionsIndexKey returns the Redis key for the SET of every session key
func sessionsIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}

// sessionsForDayIndexKey returns the Redis key for the SET of session keys of a day
func sessionsForDayIndexKey(day int) string {
	return fmt.Sprintf("%s:idx:sessions_for_day:%d", keyPrefix, day)
}

// activeTimerKey returns the Redis key holding the running session key
func activeTimerKey() string {
	return fmt.Sprintf("%s:active_timer", keyPrefix)
}

// adminKey returns the Redis key for an Admin
func adminKey(id model.AdminID) string {
	return fmt.Sprintf("%s:admin:%s", keyPrefix, id)
}

// adminEmailIndexKey returns the Redis key for the email -> admin_id index
func adminEmailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:admin_email:%s", keyPrefix, email)
}
