// Command alertctl runs alert engine operations from the command line against the
// configured store, and enqueues refresh requests for the alert-worker.
package main

func main() {
	Execute()
}
