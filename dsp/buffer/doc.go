// Package buffer provides the planar multi-channel block the effect chain
// processes in place, plus interleaving helpers and a pool for hosts.
// A Block is a view: it never owns more than the channel slice headers, so
// sub-block views can be taken without allocating.
package buffer
