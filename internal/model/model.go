// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the JSON shapes exchanged with the Jifa server.
package model

// Role is the mode the server runs in.
type Role string

const (
	RoleMaster           Role = "MASTER"
	RoleElasticWorker    Role = "ELASTIC_WORKER"
	RoleStandaloneWorker Role = "STANDALONE_WORKER"
)

// FileTransferMethod identifies a way of getting a dump onto the server.
// Values the CLI does not know are kept as sent.
type FileTransferMethod string

const (
	TransferUpload FileTransferMethod = "UPLOAD"
	TransferOSS    FileTransferMethod = "OSS"
	TransferS3     FileTransferMethod = "S3"
	TransferSCP    FileTransferMethod = "SCP"
	TransferURL    FileTransferMethod = "URL"
	TransferText   FileTransferMethod = "TEXT"
)

// User is the authenticated principal.
type User struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// PublicKey is the server key in two encodings, used for client-side
// encryption of transfer credentials.
type PublicKey struct {
	PKCS8 string `json:"pkcs8"`
	SSH2  string `json:"ssh2"`
}

// HandshakeResponse is the server's capability and identity payload.
type HandshakeResponse struct {
	ServerRole                  Role                 `json:"serverRole,omitempty"`
	AllowLogin                  bool                 `json:"allowLogin"`
	AllowAnonymousAccess        bool                 `json:"allowAnonymousAccess"`
	AllowRegistration           bool                 `json:"allowRegistration"`
	PublicKey                   *PublicKey           `json:"publicKey,omitempty"`
	OAuth2LoginLinks            map[string]string    `json:"oauth2LoginLinks,omitempty"`
	User                        *User                `json:"user,omitempty"`
	DisabledFileTransferMethods []FileTransferMethod `json:"disabledFileTransferMethods"`
}

// LoginRequest is the body of the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the body of the signup endpoint.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

// Server error codes the CLI reacts to.
const (
	ErrorCodeWorkerNotReady = "ELASTIC_WORKER_NOT_READY"
	ErrorCodeAccessDenied   = "ACCESS_DENIED"
	ErrorCodeFileTooLarge   = "FILE_TOO_LARGE"
	// ErrorCodeInternal is used locally when a 500 carries no code.
	ErrorCodeInternal = "INTERNAL_ERROR"
)
