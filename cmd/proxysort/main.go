// Package main provides the entry point for the proxysort CLI.
//
// proxysort extracts links from chat messages and attached text files,
// resolves the IP each link points at and files it under the category
// mapped to that IP. Links at unmapped IPs wait in the Unknown Bucket until
// the IP is tracked.
//
// Usage:
//
//	proxysort scan messages.txt
//	proxysort track 203.0.113.7 "Residential EU"
//	proxysort get Residential EU 5
//
// See --help for all available options.
package main

// main is the entry point for proxysort.
func main() {
	Execute()
}
