// Package tlsroots builds the trust store used for wss:// endpoints.
//
// The pool starts from the system roots and can be extended with a CA
// bundle, typically the self-signed certificate of a device on the LAN.
package tlsroots
