// Package capability holds the registry and dispatcher that sit between a
// transport and the handlers of an MCP-style server. It knows about exactly
// three kinds of capability:
//
//   - Resources are addressed by a pattern such as "user://{user_id}". The
//     placeholders are bound from the concrete address at lookup time.
//   - Tools are addressed by name and take named, typed parameters.
//   - Prompts are addressed by name and render a parameterized text.
//
// Registration happens once, at startup, through a Builder:
//
//	b := capability.NewBuilder()
//	b.Tool("calculate_bmi", "Compute a body mass index",
//	    []capability.ParameterSpec{
//	        capability.Required("weight_kg", capability.Float, "Weight in kilograms"),
//	        capability.Required("height_m", capability.Float, "Height in metres"),
//	    },
//	    func(ctx context.Context, args capability.Args) (any, error) {
//	        h := args.Float("height_m")
//	        if h <= 0 {
//	            return nil, capability.DomainErrorf("height must be > 0")
//	        }
//	        return args.Float("weight_kg") / (h * h), nil
//	    },
//	)
//	reg, err := b.Build()
//
// The resulting Registry is immutable and safe for concurrent readers without
// locking. A Dispatcher resolves a Request against it, binds the raw
// arguments with Bind, invokes the handler and packages the outcome as a
// Response. Handler panics and unexpected errors never escape Dispatch; they
// are reported as InternalError failures.
package capability
