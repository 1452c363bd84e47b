package storage

// Keys of the records table.
const (
	userProfileKey = "user_profile"
)
