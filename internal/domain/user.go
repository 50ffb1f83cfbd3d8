package domain

type User struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarURL,omitempty"`
}
