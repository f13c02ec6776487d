package keys

// Domain key builders. Pure string templates: given the same logical identity
// they always produce the same key, and different identities never collide.

// Analysis returns the key for a lesson analysis result.
func Analysis(id string) string {
	return Join("analysis", id)
}

// Lesson returns the key for a lesson record.
func Lesson(id string) string {
	return Join("lesson", id)
}

// LessonsByUser returns the key for a user's lesson listing.
func LessonsByUser(userID string) string {
	return Join("lesson", "by_user", userID)
}

// Transcription returns the key for a lesson's transcription.
func Transcription(lessonID string) string {
	return Join("transcription", lessonID)
}

// BNCCScore returns the key for a lesson's BNCC pedagogical score.
func BNCCScore(lessonID string) string {
	return Join("bncc_score", lessonID)
}

// BullyingAlerts returns the key for an institution's bullying alert summary.
func BullyingAlerts(institutionID string) string {
	return Join("bullying_alerts", institutionID)
}

// User returns the key for a user record.
func User(id string) string {
	return Join("user", id)
}

// UserStats returns the key for a user's dashboard statistics.
func UserStats(id string) string {
	return Join("user_stats", id)
}

// Institution returns the key for an institution record.
func Institution(id string) string {
	return Join("institution", id)
}

// InstitutionUsers returns the key for an institution's member listing.
func InstitutionUsers(id string) string {
	return Join("institution", id, "users")
}

// Billing returns the key for a user's billing summary.
func Billing(userID string) string {
	return Join("billing", userID)
}

// CreditBalance returns the key for a user's credit balance.
func CreditBalance(userID string) string {
	return Join("billing", userID, "credits")
}

// Session returns the key for a web session.
func Session(id string) string {
	return Join("session", id)
}

// Lock returns the key guarding a lock resource.
func Lock(resource string) string {
	return Join("lock", resource)
}

// RateLimit returns the counter (or sorted set) key for a rate limit window.
func RateLimit(scope, identifier string) string {
	return Join("rate_limit", scope, identifier)
}

// LoginAttempts returns the failed-login counter key for an identifier.
func LoginAttempts(identifier string) string {
	return Join("rate_limit", "login", identifier)
}

// LoginLockout returns the lockout marker key for an identifier.
func LoginLockout(identifier string) string {
	return Join("rate_limit", "login_lockout", identifier)
}
