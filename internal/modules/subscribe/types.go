package subscribe

// SubscribeDTO is the body for POST /subscribe and DELETE /unsubscribe.
type SubscribeDTO struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyDTO is the body for POST /verify and POST /confirm-unsubscribe.
type VerifyDTO struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code"  binding:"required"`
}
