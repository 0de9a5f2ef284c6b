// Package kvrepo implements the repository interfaces on a kv.Store using the
// persisted document layout: one users array, one profile document per user
// and a current-user marker.
package kvrepo

const (
	// UsersKey holds the JSON array of all users.
	UsersKey = "bankprep_users"
	// CurrentUserKey holds the JSON object of the signed-in user.
	CurrentUserKey = "bankprep_current_user"
	// profilePrefix is followed by the user id.
	profilePrefix = "bankprep_data_"
)

// ProfileKey returns the key of userID's profile document.
func ProfileKey(userID string) string { return profilePrefix + userID }
