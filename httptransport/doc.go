// Package httptransport serves MCP over plain HTTP: each POST carries exactly
// one JSON-RPC message and, for requests, receives the response in the HTTP
// response body. There are no sessions and no server-initiated streams.
//
// Example:
//
//	h := httptransport.New(srv, httptransport.WithLogger(logger))
//	http.Handle("/mcp", h)
//	log.Fatal(http.ListenAndServe(":8080", nil))
package httptransport
