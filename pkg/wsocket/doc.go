// Package wsocket adapts gorilla/websocket connections to the subscriber
// transport interface consumed by the coalesce broker: discrete text and
// binary frames out, a disconnect notification in, nothing else.
package wsocket
