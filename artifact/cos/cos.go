//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package cos uploads exported flows to Tencent Cloud Object Storage.
//
// Objects are named {prefix}/{flow}/{file}. Credentials come from
// COS_SECRETID and COS_SECRETKEY unless given as options.
package cos

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"

	"trpc.group/trpc-go/trpc-agentflow-go/artifact"
	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

const defaultTimeout = 60 * time.Second

var contentTypes = map[string]string{
	".py":    "text/x-python",
	".json":  "application/json",
	".ipynb": "application/x-ipynb+json",
}

var _ artifact.Writer = (*Writer)(nil)

// Writer uploads files to one bucket.
type Writer struct {
	client *cos.Client
	bucket string
	prefix string
}

// NewWriter creates a writer for the bucket at bucketURL.
func NewWriter(bucketURL string, opts ...Option) (*Writer, error) {
	o := &options{
		timeout:   defaultTimeout,
		secretID:  os.Getenv("COS_SECRETID"),
		secretKey: os.Getenv("COS_SECRETKEY"),
	}
	for _, opt := range opts {
		opt(o)
	}
	u, err := url.Parse(bucketURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid bucket url %q", bucketURL)
	}

	timeout := o.timeout
	var base http.RoundTripper
	if o.httpClient != nil {
		base = o.httpClient.Transport
		if o.httpClient.Timeout > 0 {
			timeout = o.httpClient.Timeout
		}
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  o.secretID,
			SecretKey: o.secretKey,
			Transport: base,
		},
	}
	return &Writer{
		client: cos.NewClient(&cos.BaseURL{BucketURL: u}, httpClient),
		bucket: u.String(),
		prefix: strings.Trim(o.prefix, "/"),
	}, nil
}

// Write implements artifact.Writer. The returned location is the bucket URL
// followed by the flow's key prefix.
func (w *Writer) Write(ctx context.Context, name string, files map[string][]byte) (string, error) {
	if err := artifact.CheckName(name); err != nil {
		return "", err
	}
	base := path.Join(w.prefix, name)
	for _, file := range artifact.FileNames(files) {
		if err := artifact.CheckName(file); err != nil {
			return "", err
		}
		key := path.Join(base, file)
		opt := &cos.ObjectPutOptions{
			ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
				ContentType: contentType(file),
			},
		}
		if _, err := w.client.Object.Put(ctx, key, bytes.NewReader(files[file]), opt); err != nil {
			return "", fmt.Errorf("upload %s: %w", key, err)
		}
		log.DebugfContext(ctx, "uploaded %s (%d bytes)", key, len(files[file]))
	}
	return strings.TrimSuffix(w.bucket, "/") + "/" + base, nil
}

func contentType(file string) string {
	if t, ok := contentTypes[path.Ext(file)]; ok {
		return t
	}
	return "text/plain"
}
