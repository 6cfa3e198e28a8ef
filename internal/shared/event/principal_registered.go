package event

const PrincipalRegisteredDestination string = "principal_registered"
const PrincipalRegisteredConsumerVerification string = "principal_registered_verification"

type PrincipalRegisteredMessage struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}
