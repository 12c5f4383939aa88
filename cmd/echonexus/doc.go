// Command echonexus is the CLI for the echonexus daemon: submit documents,
// query correlation status, run creative cycles, chat, and inspect the event
// log over the daemon's HTTP API.
package main
