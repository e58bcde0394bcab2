package http

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

type MeResponse struct {
	UserID      string `json:"user_id"`
	FirebaseUID string `json:"firebase_uid"`
	Email       string `json:"email,omitempty"`
}
