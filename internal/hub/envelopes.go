package hub

// Kind tags every inbound envelope. Chat kinds carry user-visible content and
// are persisted; signaling kinds carry call-control payloads and are relayed
// without ever touching storage.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindOther Kind = "other"

	KindCallOffer    Kind = "call_offer"
	KindCallAnswer   Kind = "call_answer"
	KindIceCandidate Kind = "ice_candidate"
	KindCallEnd      Kind = "call_end"
)

func (k Kind) IsChat() bool {
	switch k {
	case KindText, KindAudio, KindVideo, KindOther:
		return true
	}
	return false
}

func (k Kind) IsSignaling() bool {
	switch k {
	case KindCallOffer, KindCallAnswer, KindIceCandidate, KindCallEnd:
		return true
	}
	return false
}

// InboundEnvelope is one decoded client frame. Signaling frames are relayed
// verbatim from the raw bytes, so unknown fields (sdp, candidate) survive.
type InboundEnvelope struct {
	Type             Kind   `json:"type"`
	SenderId         string `json:"sender_id" validate:"required,uuid_rfc4122"`
	Content          string `json:"content" validate:"required"`
	ReplyToMessageId string `json:"reply_to_message_id,omitempty"`
	ClientMessageId  string `json:"client_message_id,omitempty"`
}

// ErrorFrame is sent inline to the originating connection; the connection
// stays open.
type ErrorFrame struct {
	Error string `json:"error"`
}
