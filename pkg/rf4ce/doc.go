// Package rf4ce implements the RF4CE link-layer codec, CCM* security
// transform, key-recovery state machine, and packet-level injection
// primitives used by the rf4cetools command-line utilities.
//
// The package assumes an external, already-demodulated 802.15.4 MAC
// transport (see RadioTransport); O-QPSK modulation and SDR sample I/O
// are out of scope.
package rf4ce
