// Package mcpservice adapts a capability.Dispatcher to the MCP method set.
//
// A Server is built once from an immutable registry. Listings are computed at
// construction and served in pages; tools/call, resources/read and
// prompts/get are routed through the dispatcher so that every invocation
// gets the same binding, error containment and logging.
//
// Quick start:
//
//	reg, err := capability.NewBuilder().
//	    Tool("echo", "Echo a message back", []capability.ParameterSpec{
//	        capability.Required("message", capability.String, "Text to echo"),
//	    }, func(ctx context.Context, args capability.Args) (any, error) {
//	        return "you said: " + args.String("message"), nil
//	    }).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	srv := mcpservice.NewServer(capability.NewDispatcher(reg),
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	)
//
// Failures are reported the way MCP clients expect them: tool failures other
// than an unknown tool become results with isError set, while resource and
// prompt failures are returned as *jsonrpc.Error values carrying the failure
// category in their data member.
package mcpservice
