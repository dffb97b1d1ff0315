package models

// NotificationCategory identifies what kind of event a notification is about.
// Categories are a closed set; adding one means adding a row to categoryInfo.
type NotificationCategory string

const (
	CategoryAnnouncement     NotificationCategory = "announcement"
	CategoryTaskReminder     NotificationCategory = "task_reminder"
	CategoryTaskAssigned     NotificationCategory = "task_assigned"
	CategoryQuestionAnswered NotificationCategory = "question_answered"
	CategoryGroupInvite      NotificationCategory = "group_invite"
)

// CategoryInfo describes the delivery behavior of a category.
type CategoryInfo struct {
	// DefaultEnabled is what a missing NotificationSetting row means.
	DefaultEnabled bool
	// Topic is the push-gateway topic for broadcast categories, empty otherwise.
	Topic string
	// HighPriority requests immediate delivery hints from the gateway.
	HighPriority bool
}

var categoryInfo = map[NotificationCategory]CategoryInfo{
	CategoryAnnouncement:     {DefaultEnabled: true, Topic: "announcements", HighPriority: true},
	CategoryTaskReminder:     {DefaultEnabled: true, HighPriority: true},
	CategoryTaskAssigned:     {DefaultEnabled: true},
	CategoryQuestionAnswered: {DefaultEnabled: true},
	CategoryGroupInvite:      {DefaultEnabled: true},
}

// Valid reports whether c is a known category.
func (c NotificationCategory) Valid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// Info returns the delivery behavior for c. Unknown categories get zero-value
// info, which disables broadcast and priority hints.
func (c NotificationCategory) Info() CategoryInfo {
	return categoryInfo[c]
}

// IsBroadcast reports whether c is delivered via a gateway topic instead of
// per-user multicast.
func (c NotificationCategory) IsBroadcast() bool {
	return categoryInfo[c].Topic != ""
}

// Categories returns all known categories in a stable order.
func Categories() []NotificationCategory {
	return []NotificationCategory{
		CategoryAnnouncement,
		CategoryTaskReminder,
		CategoryTaskAssigned,
		CategoryQuestionAnswered,
		CategoryGroupInvite,
	}
}
