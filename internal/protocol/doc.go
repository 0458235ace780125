// Package protocol demultiplexes bridge output and correlates replies with
// the requests that caused them.
//
// The Dispatcher is the sole consumer of the transport's message channel.
// Lines carrying an "event" field are decoded and appended to an EventQueue;
// every other line is a reply and is routed by its "id" to the caller waiting
// on that request. Replies nobody is waiting for are dropped.
//
// Example usage:
//
//	dispatcher := protocol.NewDispatcher(log, transport, protocol.NewCounterIDs())
//	go dispatcher.Run(ctx)
//
//	raw, err := dispatcher.Request(ctx, message.JoinLobby())
//
//	for ev, ok := dispatcher.Events().Pop(); ok; ev, ok = dispatcher.Events().Pop() {
//		fmt.Println(ev.Name)
//	}
package protocol
