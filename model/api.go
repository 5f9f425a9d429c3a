package model

type ErrorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

type NoticeResponse struct {
	Notice string `json:"notice"`
	Data   any    `json:"data,omitempty"`
}
