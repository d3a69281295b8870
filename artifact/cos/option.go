//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package cos

import (
	"net/http"
	"time"
)

// Option configures a Writer.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	secretID   string
	secretKey  string
	prefix     string
}

// WithHTTPClient sets the HTTP client whose transport and timeout COS
// requests use. Requests are still signed with the configured credentials.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout sets the timeout duration for HTTP requests.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithSecretID sets the COS secret ID.
// If not provided, the COS_SECRETID environment variable is used.
func WithSecretID(secretID string) Option {
	return func(o *options) {
		o.secretID = secretID
	}
}

// WithSecretKey sets the COS secret key.
// If not provided, the COS_SECRETKEY environment variable is used.
func WithSecretKey(secretKey string) Option {
	return func(o *options) {
		o.secretKey = secretKey
	}
}

// WithPrefix puts every object under prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}
