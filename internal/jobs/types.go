package jobs

type JobType string

const (
	JobSendVerificationEmail JobType = "send_verification_email"
	JobResizeAvatar          JobType = "resize_avatar"
)

// decoders doubles as the list of known job types.
var decoders = map[JobType]func([]byte) (payload, error){
	JobSendVerificationEmail: decodeAs[SendVerificationEmailPayload],
	JobResizeAvatar:          decodeAs[ResizeAvatarPayload],
}

func (t JobType) IsValid() bool {
	_, ok := decoders[t]
	return ok
}
