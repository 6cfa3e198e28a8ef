package inbound

type RequestCodeRequest struct {
	Email string `json:"email"`
}

type RequestCodeResponse struct {
	OK              bool   `json:"ok"`
	AlreadyVerified bool   `json:"alreadyVerified,omitempty"`
	Delivered       *bool  `json:"delivered,omitempty"`
	SendError       string `json:"sendError,omitempty"`
	DevCode         string `json:"devCode,omitempty"`
}

func (RequestCodeResponse) Message() string { return "Kode verifikasi diproses" }

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyCodeResponse struct {
	OK              bool `json:"ok"`
	AlreadyVerified bool `json:"alreadyVerified,omitempty"`
	Verified        bool `json:"verified,omitempty"`
}

func (VerifyCodeResponse) Message() string { return "Verifikasi email diproses" }
