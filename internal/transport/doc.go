// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport opens remote chat streams over HTTP.
//
// A Client turns a configured URL into an io.ReadCloser that the stream
// processor consumes. Only connection setup is bounded by the client; the
// body stays open until the processor releases it or the context ends.
//
// # Usage
//
//	client := transport.NewClientWithConfig(&transport.ClientConfig{
//	    URL: "http://127.0.0.1:8080/chat/stream",
//	})
//	body, err := client.Open(ctx)
//	if err != nil {
//	    return err
//	}
//	err = proc.Run(ctx, body, callbacks)
package transport
