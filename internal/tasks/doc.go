// Package tasks implements the Blend screens independently of how they are drawn.
//
// # Screens
//
// [BlendBoard] drives the list of a user's blends:
//
//  1. [BlendBoard.Mount] : resolves the signed-in user, then loads the list
//     - The server list is merged with the local cache ([MergeSummaries])
//     - Every listed blend's detail is loaded concurrently
//     - A failed list call shows the cache alone and is only logged
//
//  2. [BlendBoard.Run] : refreshes the list every ListInterval until the context ends
//
//  3. Actions: [BlendBoard.Create], [BlendBoard.Join], [BlendBoard.Delete],
//     [BlendBoard.AddHistory], [BlendBoard.CopyCode] and [BlendBoard.Invite]
//
// [BlendRoom] is the single blend view. It polls every DetailInterval, but only once the first load succeeded.
//
// # Detail Loading
//
// Each code has its own load state ([CardState]). A poll tick for a code whose previous load is still in flight
// is skipped, and a failed load keeps the last good detail.
//
// # Lifetime
//
// Mount starts a lifetime that Unmount (or the end of Run) cancels. Responses that arrive after Unmount are
// discarded and delayed refreshes scheduled by AddHistory never fire.
//
// # Notices
//
// Results are reported as [Notice] values on Options.Notices using non-blocking sends. A notice with Navigate set
// asks the front end to move to another view, e.g. [RouteLogin] after authentication is lost.
// Errors returned by actions are [Failure] values whose Error is the text already shown to the user.
package tasks
