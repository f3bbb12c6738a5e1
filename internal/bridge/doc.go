// Package bridge connects the desktop UI to the pad through an external
// transport.
//
// It has three parts:
//
//   - Executor sends typed commands and resolves them to a Result. It
//     validates before sending, never retries, and never lets a transport
//     error or panic escape.
//   - EventChannel subscribes once to the transport's event stream and
//     fans decoded events out to listeners in arrival order.
//   - Store owns the AppState. It refreshes from the pad, follows connect
//     and disconnect events, and re-queries after every write instead of
//     applying changes locally.
//
// Typical wiring:
//
//	exec := bridge.NewExecutor(transport)
//	events := bridge.NewEventChannel(transport)
//	store := bridge.NewStore(exec, events)
//	defer store.Close()
//
//	res := bridge.Execute(ctx, exec, protocol.SerialListPorts{})
//	if res.OK && res.Value != nil {
//	    for _, p := range *res.Value { ... }
//	}
package bridge
