// Package epochs derives events from annotations and cuts fixed windows of a
// recording around them.
//
// Event codes are assigned from 1 in order of first appearance of each
// annotation label, so the same annotations always give the same map.
package epochs
