// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is the transport used when the server is spawned as a
// subprocess by an MCP client.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Auth             : none
//	Framing          : one JSON-RPC message per line
//	Concurrency      : requests served concurrently, writes serialized
//
// Logs must never be written to stdout, which carries the protocol. Point
// the logger at stderr.
//
// Example:
//
//	srv := mcpservice.NewServer(capability.NewDispatcher(reg),
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "my-stdio-server", Version: "0.1.0"}),
//	)
//	h := stdio.NewHandler(srv, stdio.WithLogger(logger))
//	if err := h.Serve(ctx); err != nil { log.Fatal(err) }
package stdio
