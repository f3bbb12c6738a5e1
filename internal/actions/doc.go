// Package actions starts the commands bound to the pad's action keys.
//
// The Dispatcher listens for key input events, resolves the pressed slot
// against the mode named in the event using the store's last confirmed
// configuration, and hands command actions to a process runner:
//
//	d := actions.New(runner, store)
//	d.Attach(events)
//	defer d.Detach()
package actions
