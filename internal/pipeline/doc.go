// Package pipeline runs independent unfolding jobs concurrently and hands
// their outcomes to a visit callback in submission order.
//
// The only contract to implement is Runner. Engine is the production
// Runner; tests swap in fakes to exercise ordering and cancellation.
package pipeline
