package redisx

import "fmt"

const ns = "gatego:v1"

func KeyEventStats(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:stats", ns, eventID)
}

func KeyStatsOverview() string {
	return ns + ":stats:overview"
}

func KeyVerificationCode(phone string) string {
	return fmt.Sprintf("%s:verify:%s", ns, phone)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
