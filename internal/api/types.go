package api

import "github.com/samcharles93/flowkit/internal/document"

// StoredDocument is a document held by the server between requests.
type StoredDocument struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	document.Document
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Documents int    `json:"documents"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
