package identity

// User is the identity record the backend reports for an authenticated
// session. Field names match the backend's JSON wire format.
type User struct {
	ID                 int64  `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	DisplayName        string `json:"displayName,omitempty"`
	Role               string `json:"role"`
	Plan               string `json:"plan"`
	AvatarURL          string `json:"avatarUrl,omitempty"`
	MockInterviewsUsed *int   `json:"mockInterviewsUsed,omitempty"`
}

// Clone returns a deep copy. Session snapshots hand out clones so that no
// consumer ever aliases the store's writable record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.MockInterviewsUsed != nil {
		used := *u.MockInterviewsUsed
		out.MockInterviewsUsed = &used
	}
	return &out
}

// RegistrationDraft is the payload for the registration endpoint. Email and
// Password are required; the rest is optional profile data.
type RegistrationDraft struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Plan        string `json:"plan,omitempty"`
}
